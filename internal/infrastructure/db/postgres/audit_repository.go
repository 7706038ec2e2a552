package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/ids"
)

// AuditRepository appends to the auth_audit_log and audit_log tables. Only
// inserts and reads exist; the append-only contract has no update or delete
// path to misuse.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InsertAuthEvent(ctx context.Context, entry *domain.AuthAuditEntry) error {
	if entry.ID == "" {
		entry.ID = ids.NewSortable()
	}
	_, err := r.db.ExecContext(ctx,
		`insert into auth_audit_log (id, user_id, event_type, success, ip_address, user_agent, created_at)
		 values ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.UserID, string(entry.EventType), entry.Success,
		nullString(entry.IPAddress), nullString(entry.UserAgent), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert auth event: %w", err)
	}
	return nil
}

func (r *AuditRepository) InsertChange(ctx context.Context, entry *domain.ChangeAuditEntry) error {
	if entry.ID == "" {
		entry.ID = ids.NewSortable()
	}
	_, err := r.db.ExecContext(ctx,
		`insert into audit_log (id, user_id, user_email, tenant_id, action, entity_type, entity_id,
			old_value, new_value, ip_address, user_agent, created_at)
		 values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.UserID, entry.UserEmail, entry.TenantID, entry.Action,
		entry.EntityType, entry.EntityID, nullBytes(entry.OldValue), nullBytes(entry.NewValue),
		nullString(entry.IPAddress), nullString(entry.UserAgent), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert change record: %w", err)
	}
	return nil
}

func (r *AuditRepository) ListAuthEventsByUser(ctx context.Context, userID string, limit int) ([]domain.AuthAuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`select id, user_id, event_type, success, ip_address, user_agent, created_at
		 from auth_audit_log
		 where user_id = $1
		 order by created_at desc
		 limit $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list auth events: %w", err)
	}
	defer rows.Close()

	var out []domain.AuthAuditEntry
	for rows.Next() {
		var (
			e         domain.AuthAuditEntry
			eventType string
			ip        sql.NullString
			ua        sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &eventType, &e.Success, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan auth event: %w", err)
		}
		e.EventType = domain.AuthEventType(eventType)
		e.IPAddress = ip.String
		e.UserAgent = ua.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
