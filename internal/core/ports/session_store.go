package ports

import (
	"context"

	"github.com/wishlist/account-service/internal/core/domain"
)

// SessionStore holds live sessions keyed by token. Implementations must be
// safe for concurrent use.
type SessionStore interface {
	// Insert stores the session only if its token is not already present;
	// otherwise it returns domain.ErrSessionExists and stores nothing.
	Insert(ctx context.Context, s *domain.Session) error
	// Get reports false when the token is unknown or expired.
	Get(ctx context.Context, token string) (*domain.Session, bool, error)
	// Delete removes the session and reports whether it was present. Unknown
	// tokens are a no-op returning false. When several callers delete the
	// same token concurrently exactly one of them sees true.
	Delete(ctx context.Context, token string) (bool, error)
	// DeleteByUsername removes every session bound to username and returns
	// how many were removed.
	DeleteByUsername(ctx context.Context, username string) (int, error)
}

// TokenMinter produces bearer token strings.
type TokenMinter interface {
	Mint() (string, error)
	// WellFormed is a cheap structural check run before any store lookup.
	WellFormed(token string) bool
}
