package ports

import (
	"context"

	"github.com/wishlist/account-service/internal/core/domain"
)

// UserDirectory is the persistence boundary for user records. Lookups are by
// username, the natural key.
type UserDirectory interface {
	// FindByUsername returns domain.ErrUserNotFound when no record matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// Create assigns a fresh UserID and inserts the record. Returns
	// domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// Save replaces an existing record, matched by username.
	Save(ctx context.Context, user *domain.User) error
	// Delete removes the record. Returns domain.ErrUserNotFound when absent.
	Delete(ctx context.Context, username string) error
	List(ctx context.Context) ([]*domain.User, error)
}

// PasswordHasher is a one-way salted hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}
