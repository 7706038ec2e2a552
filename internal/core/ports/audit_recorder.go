package ports

import (
	"context"
	"encoding/json"

	"github.com/opsgate/identity/internal/core/domain"
)

// ChangeInput describes one entity mutation for the change audit trail.
type ChangeInput struct {
	ActorUserID *string
	ActorEmail  string
	TenantID    string
	Action      string
	EntityType  string
	EntityID    string
	OldValue    json.RawMessage
	NewValue    json.RawMessage
	Meta        RequestMeta
}

// AuditRecorder appends to the audit trail. Both methods are fire-and-forget:
// a storage failure is logged and swallowed so a broken audit pipe can never
// block a login or a webhook decision.
type AuditRecorder interface {
	RecordAuthEvent(ctx context.Context, userID *string, eventType domain.AuthEventType, success bool, meta RequestMeta)
	RecordChange(ctx context.Context, in ChangeInput)
	ListAuthEvents(ctx context.Context, userID string, limit int) ([]domain.AuthAuditEntry, error)
}
