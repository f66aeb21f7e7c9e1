package middleware

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/wishlist/account-service/internal/core/domain"
)

// RoleAuthorizer is the part of the authorization gate RequireRole needs.
type RoleAuthorizer interface {
	RequireRole(ctx context.Context, token string, role domain.Role) (domain.Principal, error)
}

// TokenAuthorizer is the part of the authorization gate RequireValidToken needs.
type TokenAuthorizer interface {
	RequireValidToken(ctx context.Context, token string) (domain.Principal, error)
}

// Authorizer is the full authorization gate.
type Authorizer interface {
	TokenAuthorizer
	RoleAuthorizer
}

// RequireValidToken rejects the request before the handler binds or reads
// anything unless the token set by Auth resolves to a live session of any
// role. The resolved principal is stored under ContextKeyPrincipal.
func RequireValidToken(gate TokenAuthorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := gate.RequireValidToken(c.Request().Context(), Token(c))
			if err != nil {
				return err
			}
			c.Set(ContextKeyPrincipal, p)
			return next(c)
		}
	}
}

// RequireRole rejects the request before the handler binds or reads anything
// unless the token set by Auth resolves to a session holding exactly role.
// The resolved principal is stored under ContextKeyPrincipal.
func RequireRole(gate RoleAuthorizer, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := gate.RequireRole(c.Request().Context(), Token(c), role)
			if err != nil {
				return err
			}
			c.Set(ContextKeyPrincipal, p)
			return next(c)
		}
	}
}
