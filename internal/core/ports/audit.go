package ports

import (
	"context"

	"github.com/wishlist/account-service/internal/core/domain"
)

// AuditRepository persists session lifecycle events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}

// AuditReader returns the most recent session events of a user, newest first.
type AuditReader interface {
	ListByUsername(ctx context.Context, username string, limit int64) ([]domain.SessionEvent, error)
}

// AuditRecorder accepts session events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.SessionEvent)
}
