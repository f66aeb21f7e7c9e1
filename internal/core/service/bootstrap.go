package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

// EnsureAdmin creates an ADMIN account named username when the directory has
// no record by that name. An existing record is left untouched whatever its
// role. It reports whether an account was created.
func EnsureAdmin(ctx context.Context, users ports.UserDirectory, hasher ports.PasswordHasher, username, password string, log zerolog.Logger) (bool, error) {
	_, err := users.FindByUsername(ctx, username)
	switch {
	case err == nil:
		log.Debug().Str("username", username).Msg("bootstrap admin already present")
		return false, nil
	case !errors.Is(err, domain.ErrUserNotFound):
		return false, gatewayErr("find user", err)
	}

	_, err = createUser(ctx, users, hasher, ports.SignUpInput{
		FirstName: "Admin",
		LastName:  "Admin",
		Email:     username + "@localhost",
		Username:  username,
		Password:  password,
		Role:      domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	log.Info().Str("username", username).Msg("bootstrap admin created")
	return true, nil
}
