package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wishlist/account-service/internal/core/domain"
	"github.com/wishlist/account-service/internal/core/ports"
)

// AdminOptions tunes the session policy of admin user edits.
type AdminOptions struct {
	// RevokeOnRoleChange invalidates every live session of a user whose role
	// an admin changes. When false (the default) existing tokens keep the role
	// they were issued with until the user logs in again.
	RevokeOnRoleChange bool
}

// AdminService is user management restricted to ADMIN sessions.
type AdminService struct {
	users   ports.UserDirectory
	hasher  ports.PasswordHasher
	tokens  *TokenManager
	gate    *Gate
	audit   ports.AuditRecorder
	history ports.AuditReader
	log     zerolog.Logger
	opts    AdminOptions
}

func NewAdminService(
	users ports.UserDirectory,
	hasher ports.PasswordHasher,
	tokens *TokenManager,
	gate *Gate,
	audit ports.AuditRecorder,
	history ports.AuditReader,
	log zerolog.Logger,
	opts AdminOptions,
) *AdminService {
	if audit == nil {
		audit = nopRecorder{}
	}
	return &AdminService{
		users:   users,
		hasher:  hasher,
		tokens:  tokens,
		gate:    gate,
		audit:   audit,
		history: history,
		log:     log,
		opts:    opts,
	}
}

func (s *AdminService) ListUsers(ctx context.Context, token string) ([]*domain.User, error) {
	if _, err := s.gate.RequireRole(ctx, token, domain.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, gatewayErr("list users", err)
	}
	return users, nil
}

func (s *AdminService) CreateUser(ctx context.Context, token string, in ports.SignUpInput) (*domain.User, error) {
	admin, err := s.gate.RequireRole(ctx, token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	user, err := createUser(ctx, s.users, s.hasher, in)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("admin", admin.Username).Str("username", user.Username).Str("role", user.Role.String()).Msg("user created by admin")
	return user, nil
}

// UpdateUser edits any user. A role change does not touch the user's live
// sessions unless RevokeOnRoleChange is set.
func (s *AdminService) UpdateUser(ctx context.Context, token, username string, in ports.UpdateUserInput) (*domain.User, error) {
	admin, err := s.gate.RequireRole(ctx, token, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrBadRequest)
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, gatewayErr("find user", err)
	}

	if in.FirstName != nil {
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		user.LastName = *in.LastName
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, err
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, gatewayErr("hash password", err)
		}
		user.PasswordHash = digest
	}
	roleChanged := in.Role != nil && *in.Role != user.Role
	if in.Role != nil {
		user.Role = *in.Role
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Save(ctx, user); err != nil {
		return nil, gatewayErr("save user", err)
	}

	if roleChanged && s.opts.RevokeOnRoleChange {
		s.revoke(ctx, admin, username)
	}

	s.log.Info().Str("admin", admin.Username).Str("username", username).Bool("role_changed", roleChanged).Msg("user updated by admin")
	return user, nil
}

// DeleteUser removes any user and every session bound to it.
func (s *AdminService) DeleteUser(ctx context.Context, token, username string) error {
	admin, err := s.gate.RequireRole(ctx, token, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("%w: username is required", domain.ErrBadRequest)
	}

	if err := s.users.Delete(ctx, username); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return gatewayErr("delete user", err)
	}
	s.revoke(ctx, admin, username)

	s.audit.Record(domain.SessionEvent{Type: domain.EventAccountDeleted, Username: username, Actor: admin.Username, Timestamp: time.Now().UTC()})
	s.log.Info().Str("admin", admin.Username).Str("username", username).Msg("user deleted by admin")
	return nil
}

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// UserEvents returns the session audit trail of username. The user need not
// exist any more: deleted accounts keep their history.
func (s *AdminService) UserEvents(ctx context.Context, token, username string, limit int) ([]domain.SessionEvent, error) {
	if _, err := s.gate.RequireRole(ctx, token, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", domain.ErrBadRequest)
	}
	switch {
	case limit <= 0:
		limit = defaultEventLimit
	case limit > maxEventLimit:
		limit = maxEventLimit
	}
	if s.history == nil {
		return []domain.SessionEvent{}, nil
	}

	events, err := s.history.ListByUsername(ctx, username, int64(limit))
	if err != nil {
		return nil, gatewayErr("list session events", err)
	}
	return events, nil
}

// revoke invalidates all of username's sessions. The directory write already
// happened, so a store failure is logged rather than returned.
func (s *AdminService) revoke(ctx context.Context, admin domain.Principal, username string) {
	n, err := s.tokens.InvalidateUser(ctx, username)
	if err != nil {
		s.log.Error().Err(err).Str("username", username).Msg("failed to revoke sessions")
		return
	}
	s.audit.Record(domain.SessionEvent{Type: domain.EventSessionsRevoked, Username: username, Actor: admin.Username, Timestamp: time.Now().UTC()})
	s.log.Info().Str("username", username).Int("sessions", n).Msg("sessions revoked")
}
