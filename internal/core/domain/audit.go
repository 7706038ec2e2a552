package domain

import (
	"encoding/json"
	"time"
)

// AuthEventType classifies rows in the authentication audit trail.
type AuthEventType string

const (
	AuthEventLogin           AuthEventType = "login"
	AuthEventLogout          AuthEventType = "logout"
	AuthEventPasswordChange  AuthEventType = "password_change"
	AuthEventPasswordReset   AuthEventType = "password_reset"
	AuthEventPasswordExpired AuthEventType = "password_expired"
	AuthEventAccountLocked   AuthEventType = "account_locked"
	AuthEventWebhookVerify   AuthEventType = "webhook_verification"
)

// AuthAuditEntry is one authentication-relevant event. UserID is nil when
// the identity lookup itself failed (unknown email) and is set to null when
// the user is later deleted; the row itself is never removed.
type AuthAuditEntry struct {
	ID        string        `json:"id"`
	UserID    *string       `json:"user_id,omitempty"`
	EventType AuthEventType `json:"event_type"`
	Success   bool          `json:"success"`
	IPAddress string        `json:"ip_address,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ChangeAuditEntry is one row per mutating operation on a tracked entity.
// OldValue and NewValue carry the entire previous and new state as opaque
// JSON; entity shapes vary and are deliberately not schema-validated.
// UserEmail is denormalized so the actor stays displayable after deletion.
type ChangeAuditEntry struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id,omitempty"`
	UserEmail  string          `json:"user_email"`
	TenantID   string          `json:"tenant_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	IPAddress  string          `json:"ip_address,omitempty"`
	UserAgent  string          `json:"user_agent,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
