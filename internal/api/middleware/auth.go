package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/wishlist/account-service/internal/api/metrics"
)

// Context keys set by the middleware in this package.
const (
	ContextKeyToken     = "token"
	ContextKeyPrincipal = "principal"
)

// Auth pulls the bearer token out of header and stores it under
// ContextKeyToken. It only checks presence; resolving the token is left to
// the authorization gate. When header is "Authorization" the Bearer scheme
// is required, any other header carries the raw token.
func Auth(header string) echo.MiddlewareFunc {
	bearer := strings.EqualFold(header, echo.HeaderAuthorization)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := extractToken(c.Request().Header.Get(header), bearer)
			if !ok {
				metrics.AuthorizationFailuresTotal.WithLabelValues("missing_token").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}

			c.Set(ContextKeyToken, token)
			return next(c)
		}
	}
}

func extractToken(value string, bearer bool) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	if !bearer {
		return value, true
	}

	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Token returns the token stored by Auth, or "" when Auth did not run.
func Token(c echo.Context) string {
	token, _ := c.Get(ContextKeyToken).(string)
	return token
}
