package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

// maxMintAttempts bounds retries on a token collision, which with 256 bits
// of entropy only happens when the minter is broken.
const maxMintAttempts = 3

// TokenManager maps identities to opaque bearer tokens and back. It owns the
// session store; nothing else writes to it.
type TokenManager struct {
	store  ports.SessionStore
	minter ports.TokenMinter
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a TokenManager. A ttl <= 0 disables expiry: sessions
// then live until they are invalidated.
func NewTokenManager(store ports.SessionStore, minter ports.TokenMinter, ttl time.Duration) *TokenManager {
	if ttl < 0 {
		ttl = 0
	}
	return &TokenManager{store: store, minter: minter, ttl: ttl, now: time.Now}
}

// Issue mints a token and binds it to id. Either the session is stored and
// its token returned, or nothing is stored.
func (m *TokenManager) Issue(ctx context.Context, id domain.Identity) (string, error) {
	if id.Username == "" || !id.Role.Valid() {
		return "", fmt.Errorf("issue token: %w: incomplete identity", domain.ErrBadRequest)
	}

	now := m.now().UTC()
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		token, err := m.minter.Mint()
		if err != nil {
			return "", fmt.Errorf("issue token: mint: %w", err)
		}

		session := &domain.Session{
			Token:    token,
			UserID:   id.UserID,
			Username: id.Username,
			Role:     id.Role,
			IssuedAt: now,
		}
		if m.ttl > 0 {
			session.ExpiresAt = now.Add(m.ttl)
		}

		err = m.store.Insert(ctx, session)
		if errors.Is(err, domain.ErrSessionExists) {
			continue
		}
		if err != nil {
			return "", gatewayErr("store session", err)
		}
		return token, nil
	}
	return "", fmt.Errorf("issue token: %w", domain.ErrSessionExists)
}

// Resolve returns the principal bound to token. ok is false when the token is
// malformed, unknown, expired or invalidated; err is only set when the session
// store itself fails.
func (m *TokenManager) Resolve(ctx context.Context, token string) (p domain.Principal, ok bool, err error) {
	if token == "" || !m.minter.WellFormed(token) {
		return domain.Principal{}, false, nil
	}

	session, found, err := m.store.Get(ctx, token)
	if err != nil {
		return domain.Principal{}, false, gatewayErr("load session", err)
	}
	if !found || session.Expired(m.now()) {
		return domain.Principal{}, false, nil
	}
	return session.Principal(), true, nil
}

// Invalidate removes the session for token. Unknown and already invalidated
// tokens are a no-op.
func (m *TokenManager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := m.store.Delete(ctx, token); err != nil {
		return gatewayErr("delete session", err)
	}
	return nil
}

// Consume invalidates token and reports whether this call was the one that
// removed a live session. Of several concurrent consumers of one token at
// most one gets true.
func (m *TokenManager) Consume(ctx context.Context, token string) (bool, error) {
	if token == "" || !m.minter.WellFormed(token) {
		return false, nil
	}
	removed, err := m.store.Delete(ctx, token)
	if err != nil {
		return false, gatewayErr("delete session", err)
	}
	return removed, nil
}

// InvalidateUser removes every live session bound to username.
func (m *TokenManager) InvalidateUser(ctx context.Context, username string) (int, error) {
	n, err := m.store.DeleteByUsername(ctx, username)
	if err != nil {
		return n, gatewayErr("delete user sessions", err)
	}
	return n, nil
}

func gatewayErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrGateway, op, err)
}
