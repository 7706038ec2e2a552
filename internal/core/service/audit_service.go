package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// AuditService is the append-only recorder for authentication events and
// entity-change records. Writes are a side effect of the primary operation,
// never a precondition: failures are logged and swallowed.
type AuditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
	now  func() time.Time
}

// NewAuditService returns an AuditRecorder backed by repo.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditService {
	return &AuditService{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// RecordAuthEvent appends one authentication event. userID is nil when the
// identity lookup itself failed (e.g. unknown email).
func (s *AuditService) RecordAuthEvent(ctx context.Context, userID *string, eventType domain.AuthEventType, success bool, meta ports.RequestMeta) {
	entry := &domain.AuthAuditEntry{
		UserID:    userID,
		EventType: eventType,
		Success:   success,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: s.now(),
	}
	if err := s.repo.InsertAuthEvent(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("event_type", string(eventType)).
			Bool("success", success).
			Msg("auth audit write failed, continuing")
	}
}

// RecordChange appends one entity-change record with opaque old/new blobs.
func (s *AuditService) RecordChange(ctx context.Context, in ports.ChangeInput) {
	entry := &domain.ChangeAuditEntry{
		UserID:     in.ActorUserID,
		UserEmail:  in.ActorEmail,
		TenantID:   in.TenantID,
		Action:     in.Action,
		EntityType: in.EntityType,
		EntityID:   in.EntityID,
		OldValue:   in.OldValue,
		NewValue:   in.NewValue,
		IPAddress:  in.Meta.IPAddress,
		UserAgent:  in.Meta.UserAgent,
		CreatedAt:  s.now(),
	}
	if err := s.repo.InsertChange(ctx, entry); err != nil {
		s.log.Warn().Err(err).
			Str("action", in.Action).
			Str("entity_type", in.EntityType).
			Str("entity_id", in.EntityID).
			Msg("change audit write failed, continuing")
	}
}

// ListAuthEvents returns the most recent auth events for a user.
func (s *AuditService) ListAuthEvents(ctx context.Context, userID string, limit int) ([]domain.AuthAuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListAuthEventsByUser(ctx, userID, limit)
}
