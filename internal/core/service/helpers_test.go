package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
	"github.com/wishlist/account-service/internal/infrastructure/db/memory"
	"github.com/wishlist/account-service/internal/infrastructure/security"
)

var errBackendDown = errors.New("connection refused")

type stubDirectory struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int64
	err    error
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (d *stubDirectory) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	u, ok := d.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (d *stubDirectory) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	if _, exists := d.users[user.Username]; exists {
		return nil, domain.ErrUserExists
	}
	d.nextID++
	created := cloneUser(user)
	created.UserID = d.nextID
	d.users[created.Username] = cloneUser(created)
	return created, nil
}

func (d *stubDirectory) Save(_ context.Context, user *domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if _, ok := d.users[user.Username]; !ok {
		return domain.ErrUserNotFound
	}
	d.users[user.Username] = cloneUser(user)
	return nil
}

func (d *stubDirectory) Delete(_ context.Context, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if _, ok := d.users[username]; !ok {
		return domain.ErrUserNotFound
	}
	delete(d.users, username)
	return nil
}

func (d *stubDirectory) List(_ context.Context) ([]*domain.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	out := make([]*domain.User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (d *stubDirectory) setRole(username string, role domain.Role) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[username].Role = role
}

func (d *stubDirectory) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// hookHasher runs onHash or onVerify before delegating to plainHasher, which
// lets a test interleave another operation at that point.
type hookHasher struct {
	onHash   func()
	onVerify func()
}

func (h *hookHasher) Hash(password string) (string, error) {
	if fn := h.onHash; fn != nil {
		h.onHash = nil
		fn()
	}
	return plainHasher{}.Hash(password)
}

func (h *hookHasher) Verify(password, digest string) bool {
	if fn := h.onVerify; fn != nil {
		h.onVerify = nil
		fn()
	}
	return plainHasher{}.Verify(password, digest)
}

// plainHasher keeps tests fast; bcrypt itself is covered in the security package.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Verify(password, digest string) bool {
	return digest == "hashed:"+password
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (a *recordingAudit) Record(event domain.SessionEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *recordingAudit) types() []domain.SessionEventType {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.SessionEventType, len(a.events))
	for i, e := range a.events {
		out[i] = e.Type
	}
	return out
}

// ListByUsername returns the recorded events of username, newest first.
func (a *recordingAudit) ListByUsername(_ context.Context, username string, limit int64) ([]domain.SessionEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.SessionEvent
	for i := len(a.events) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if a.events[i].Username == username {
			out = append(out, a.events[i])
		}
	}
	return out, nil
}

type fixture struct {
	users  *stubDirectory
	store  *memory.SessionStore
	tokens *TokenManager
	gate   *Gate
	audit  *recordingAudit
	auth   *AuthService
	admin  *AdminService
}

func newFixture(t *testing.T, opts AdminOptions) *fixture {
	t.Helper()
	return newFixtureWithHasher(t, opts, plainHasher{})
}

func newFixtureWithHasher(t *testing.T, opts AdminOptions, hasher ports.PasswordHasher) *fixture {
	t.Helper()
	f := &fixture{
		users: newStubDirectory(),
		store: memory.NewSessionStore(4),
		audit: &recordingAudit{},
	}
	f.tokens = NewTokenManager(f.store, security.NewRandomMinter(), 0)
	f.gate = NewGate(f.tokens)
	auth, err := NewAuthService(f.users, hasher, f.tokens, f.gate, f.audit, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	f.auth = auth
	f.admin = NewAdminService(f.users, hasher, f.tokens, f.gate, f.audit, f.audit, zerolog.Nop(), opts)
	return f
}

// seed creates a user directly through the directory.
func (f *fixture) seed(t *testing.T, username, password string, role domain.Role) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{
		Username:     username,
		FirstName:    "First",
		LastName:     "Last",
		Email:        username + "@example.com",
		PasswordHash: "hashed:" + password,
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", username, err)
	}
	return u
}

func (f *fixture) login(t *testing.T, username, password string) string {
	t.Helper()
	token, _, err := f.auth.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return token
}
