package service

import (
	"context"

	"github.com/wishlist/account-service/internal/core/domain"
)

// SessionResolver turns a bearer token into the principal it was issued for.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (domain.Principal, bool, error)
}

// Gate is the authorization precondition every privileged operation runs
// before it reads or mutates user data. Failures are always the bare
// domain.ErrUnauthorized so callers cannot tell why a token was refused.
type Gate struct {
	sessions SessionResolver
}

func NewGate(sessions SessionResolver) *Gate {
	return &Gate{sessions: sessions}
}

// RequireValidToken accepts any live token.
func (g *Gate) RequireValidToken(ctx context.Context, token string) (domain.Principal, error) {
	p, ok, err := g.sessions.Resolve(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}

// RequireRole accepts a live token whose session role is exactly role. There
// is no hierarchy: ADMIN does not satisfy a USER requirement.
func (g *Gate) RequireRole(ctx context.Context, token string, role domain.Role) (domain.Principal, error) {
	p, err := g.RequireValidToken(ctx, token)
	if err != nil {
		return domain.Principal{}, err
	}
	if p.Role != role {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}
