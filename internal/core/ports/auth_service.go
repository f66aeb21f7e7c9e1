package ports

import (
	"context"

	"github.com/wishlist/account-service/internal/core/domain"
)

// SignUpInput carries the fields needed to create an account.
type SignUpInput struct {
	FirstName string
	LastName  string
	Email     string
	Username  string
	Password  string
	// Role is only honoured for admin-created accounts; sign-up always yields USER.
	Role domain.Role
}

// ProfileInput carries the mutable profile fields of a user.
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
}

// AuthService is the session lifecycle for end users.
type AuthService interface {
	SignUp(ctx context.Context, in SignUpInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	// LoginAs behaves like Login but also requires the account to hold role.
	LoginAs(ctx context.Context, username, password string, role domain.Role) (string, *domain.User, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, token, newPassword, confirmPassword string) (string, error)
	DeleteOwnAccount(ctx context.Context, token, username, password string) error
	UpdateProfile(ctx context.Context, token string, in ProfileInput) (*domain.User, error)
}

// UpdateUserInput is an admin edit of any user. Nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Role      *domain.Role
	Password  *string
}

// AdminService is the ADMIN-only user management surface. Every method
// authorizes token before touching the directory.
type AdminService interface {
	ListUsers(ctx context.Context, token string) ([]*domain.User, error)
	CreateUser(ctx context.Context, token string, in SignUpInput) (*domain.User, error)
	UpdateUser(ctx context.Context, token, username string, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, token, username string) error
	// UserEvents returns up to limit audit entries for username, newest first.
	UserEvents(ctx context.Context, token, username string, limit int) ([]domain.SessionEvent, error)
}
