package ports

import (
	"context"

	"github.com/opsgate/identity/internal/core/domain"
)

// AuditRepository persists the audit trail. The interface deliberately
// exposes only inserts and reads: rows are never updated or deleted, and
// the append-only contract is enforced here rather than by convention.
type AuditRepository interface {
	InsertAuthEvent(ctx context.Context, entry *domain.AuthAuditEntry) error
	InsertChange(ctx context.Context, entry *domain.ChangeAuditEntry) error
	ListAuthEventsByUser(ctx context.Context, userID string, limit int) ([]domain.AuthAuditEntry, error)
}
