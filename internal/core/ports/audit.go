package ports

import (
	"context"

	"github.com/pricewatch/console-auth/internal/core/domain"
)

// SessionAudit accepts audit events. Implementations must not block the caller
// on storage.
type SessionAudit interface {
	Record(event domain.SessionEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}
