package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

const minPasswordLength = 6

var passwordPattern = regexp.MustCompile(`^[a-zA-Z0-9!@&_?$#]+$`)

// AuthService implements sign-up, login and the session-bound account
// operations of an end user.
type AuthService struct {
	users  ports.UserDirectory
	hasher ports.PasswordHasher
	tokens *TokenManager
	gate   *Gate
	audit  ports.AuditRecorder
	log    zerolog.Logger

	// dummyDigest is verified against when the username is unknown so that
	// both failed-login paths do the same hashing work.
	dummyDigest string
}

func NewAuthService(
	users ports.UserDirectory,
	hasher ports.PasswordHasher,
	tokens *TokenManager,
	gate *Gate,
	audit ports.AuditRecorder,
	log zerolog.Logger,
) (*AuthService, error) {
	if audit == nil {
		audit = nopRecorder{}
	}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("precompute dummy digest: %w", err)
	}
	return &AuthService{
		users:       users,
		hasher:      hasher,
		tokens:      tokens,
		gate:        gate,
		audit:       audit,
		log:         log,
		dummyDigest: dummy,
	}, nil
}

func (s *AuthService) SignUp(ctx context.Context, in ports.SignUpInput) (*domain.User, error) {
	in.Role = domain.RoleUser
	user, err := createUser(ctx, s.users, s.hasher, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("username", user.Username).Int64("user_id", user.UserID).Msg("user signed up")
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.login(ctx, username, password, "")
}

func (s *AuthService) LoginAs(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error) {
	return s.login(ctx, username, password, role)
}

// login issues a token when the credentials match. Unknown user, wrong
// password and wrong role all fail with the same bare ErrUnauthorized.
func (s *AuthService) login(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, fmt.Errorf("%w: username and password are required", domain.ErrBadRequest)
	}

	user, err := s.users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		s.hasher.Verify(password, s.dummyDigest)
		s.recordLoginFailure(username)
		return "", nil, domain.ErrUnauthorized
	case err != nil:
		return "", nil, gatewayErr("find user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) || (role != "" && user.Role != role) {
		s.recordLoginFailure(username)
		return "", nil, domain.ErrUnauthorized
	}

	token, err := s.tokens.Issue(ctx, user.Identity())
	if err != nil {
		return "", nil, err
	}
	if err := s.confirmIssued(ctx, user, token); err != nil {
		return "", nil, err
	}

	s.audit.Record(domain.SessionEvent{Type: domain.EventLogin, Username: user.Username, Timestamp: time.Now().UTC()})
	s.log.Info().Str("username", user.Username).Str("role", user.Role.String()).Msg("user logged in")
	return token, user, nil
}

// confirmIssued reloads the record after token was issued. If the account was
// deleted or its role changed while the credentials were being checked, the
// deleting side may already have revoked the user's sessions without seeing
// token, so it is withdrawn here.
func (s *AuthService) confirmIssued(ctx context.Context, user *domain.User, token string) error {
	current, err := s.users.FindByUsername(ctx, user.Username)
	if err == nil && current.Role == user.Role {
		return nil
	}
	if ierr := s.tokens.Invalidate(ctx, token); ierr != nil {
		s.log.Error().Err(ierr).Str("username", user.Username).Msg("failed to withdraw token")
		return ierr
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return gatewayErr("find user", err)
	}
	s.recordLoginFailure(user.Username)
	return domain.ErrUnauthorized
}

// Logout invalidates the presenting token. A second call with the same token
// fails with ErrUnauthorized because the token no longer resolves.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	p, err := s.gate.RequireValidToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.tokens.Invalidate(ctx, token); err != nil {
		return err
	}

	s.audit.Record(domain.SessionEvent{Type: domain.EventLogout, Username: p.Username, Timestamp: time.Now().UTC()})
	s.log.Info().Str("username", p.Username).Msg("user logged out")
	return nil
}

// ChangePassword retires the presenting token, stores a new digest and
// returns a fresh token bound to the same identity and role. If the token was
// invalidated by a concurrent logout or password change after it resolved,
// nothing is changed and ErrUnauthorized is returned.
func (s *AuthService) ChangePassword(ctx context.Context, token, newPassword, confirmPassword string) (string, error) {
	p, err := s.gate.RequireValidToken(ctx, token)
	if err != nil {
		return "", err
	}
	if newPassword != confirmPassword {
		return "", domain.ErrPasswordMismatch
	}
	if err := validatePassword(newPassword); err != nil {
		return "", err
	}

	user, err := s.lookupSelf(ctx, p)
	if err != nil {
		return "", err
	}

	digest, err := s.hasher.Hash(newPassword)
	if err != nil {
		return "", gatewayErr("hash password", err)
	}

	consumed, err := s.tokens.Consume(ctx, token)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", domain.ErrUnauthorized
	}

	user.PasswordHash = digest
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrUnauthorized
		}
		return "", gatewayErr("save user", err)
	}

	newToken, err := s.tokens.Issue(ctx, domain.Identity{UserID: p.UserID, Username: p.Username, Role: p.Role})
	if err != nil {
		return "", err
	}
	if err := s.confirmIssued(ctx, user, newToken); err != nil {
		return "", err
	}

	s.audit.Record(domain.SessionEvent{Type: domain.EventPasswordChanged, Username: p.Username, Timestamp: time.Now().UTC()})
	s.log.Info().Str("username", p.Username).Msg("password changed")
	return newToken, nil
}

// DeleteOwnAccount removes the caller's own record. The token must belong to
// username; deleting anyone else goes through the admin path.
func (s *AuthService) DeleteOwnAccount(ctx context.Context, token, username, password string) error {
	p, err := s.gate.RequireValidToken(ctx, token)
	if err != nil {
		return err
	}
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", domain.ErrBadRequest)
	}
	if p.Username != username {
		return domain.ErrUnauthorized
	}

	user, err := s.lookupSelf(ctx, p)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return domain.ErrUnauthorized
	}

	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUnauthorized
		}
		return gatewayErr("delete user", err)
	}

	if err := s.tokens.Invalidate(ctx, token); err != nil {
		return err
	}
	if _, err := s.tokens.InvalidateUser(ctx, username); err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("failed to revoke remaining sessions")
	}

	s.audit.Record(domain.SessionEvent{Type: domain.EventAccountDeleted, Username: username, Timestamp: time.Now().UTC()})
	s.log.Info().Str("username", username).Msg("account deleted by owner")
	return nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, token string, in ports.ProfileInput) (*domain.User, error) {
	p, err := s.gate.RequireValidToken(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.lookupSelf(ctx, p)
	if err != nil {
		return nil, err
	}
	applyProfile(user, in)
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, gatewayErr("save user", err)
	}
	return user, nil
}

// lookupSelf loads the record behind a resolved principal. A record that
// vanished since login is reported as Unauthorized, not NotFound.
func (s *AuthService) lookupSelf(ctx context.Context, p domain.Principal) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, p.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, gatewayErr("find user", err)
	}
	return user, nil
}

func (s *AuthService) recordLoginFailure(username string) {
	s.audit.Record(domain.SessionEvent{Type: domain.EventLoginFailed, Username: username, Timestamp: time.Now().UTC()})
	s.log.Debug().Str("username", username).Msg("login rejected")
}

// createUser validates in, hashes the password and inserts the record.
func createUser(ctx context.Context, users ports.UserDirectory, hasher ports.PasswordHasher, in ports.SignUpInput) (*domain.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.FirstName == "" || in.LastName == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: first name, last name, email and username are required", domain.ErrBadRequest)
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	digest, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, gatewayErr("hash password", err)
	}

	now := time.Now().UTC()
	created, err := users.Create(ctx, &domain.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: digest,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, gatewayErr("create user", err)
	}
	return created, nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", domain.ErrBadRequest, minPasswordLength)
	}
	if !passwordPattern.MatchString(password) {
		return fmt.Errorf("%w: password contains unsupported characters", domain.ErrBadRequest)
	}
	return nil
}

func applyProfile(user *domain.User, in ports.ProfileInput) {
	if in.FirstName != "" {
		user.FirstName = in.FirstName
	}
	if in.LastName != "" {
		user.LastName = in.LastName
	}
	if in.Email != "" {
		user.Email = in.Email
	}
}

type nopRecorder struct{}

func (nopRecorder) Record(domain.SessionEvent) {}
