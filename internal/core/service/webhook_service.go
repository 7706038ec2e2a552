package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsgate/identity/internal/core/domain"
	"github.com/opsgate/identity/internal/core/ports"
)

// ReplayGuard abstracts the seen-delivery store (Redis). A delivery is
// identified by its tenant and signature: a captured request replayed
// inside the freshness window carries the identical signature.
type ReplayGuard interface {
	Seen(ctx context.Context, tenantID, signature string) (bool, error)
	Mark(ctx context.Context, tenantID, signature string) error
}

// WebhookService authenticates inbound webhook deliveries from external
// ticketing tools using per-tenant HMAC-SHA256 secrets.
//
// Check order is fixed: payload shape, tenant format, secret lookup,
// signature, then timestamp freshness. The signature is verified before the
// timestamp so that timestamp-rejection behavior can never act as an oracle
// for signature validity.
type WebhookService struct {
	secrets ports.SecretSource
	guard   ReplayGuard
	audit   ports.AuditRecorder
	log     zerolog.Logger
	now     func() time.Time
}

func NewWebhookService(secrets ports.SecretSource, guard ReplayGuard, audit ports.AuditRecorder, log zerolog.Logger) *WebhookService {
	return &WebhookService{
		secrets: secrets,
		guard:   guard,
		audit:   audit,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// webhookEnvelope is the minimal shape extracted from the body. Everything
// else in the payload is tool-specific and ignored here.
type webhookEnvelope struct {
	TenantID  string `json:"tenant_id"`
	TS        string `json:"ts"`
	Timestamp string `json:"timestamp"`
}

func (e webhookEnvelope) timestamp() string {
	if e.TS != "" {
		return e.TS
	}
	return e.Timestamp
}

// Verify runs the full validation pipeline and returns the verified tenant
// id. Signatures are computed over the raw body bytes exactly as received.
func (s *WebhookService) Verify(ctx context.Context, in ports.WebhookInput) (string, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(in.Body, &envelope); err != nil {
		return "", domain.ErrInvalidPayload
	}
	if envelope.TenantID == "" {
		return "", domain.ErrMissingTenant
	}
	if !domain.ValidTenantID(envelope.TenantID) {
		return "", domain.ErrInvalidTenantFormat
	}
	tenantID := envelope.TenantID

	secret, err := s.secrets.Secret(ctx, tenantID)
	if err != nil {
		return "", err
	}

	if !s.signatureValid(secret, in.Body, in.Signature) {
		// The tenant may be mid-rotation; retry once against a fresh read
		// before declaring final failure.
		fresh, refreshErr := s.secrets.Refresh(ctx, tenantID)
		if refreshErr != nil || !s.signatureValid(fresh, in.Body, in.Signature) {
			s.audit.RecordAuthEvent(ctx, nil, domain.AuthEventWebhookVerify, false, in.Meta)
			s.log.Warn().Str("tenant_id", tenantID).Msg("webhook signature mismatch")
			return "", domain.ErrSignatureMismatch
		}
	}

	if err := s.checkFreshness(envelope.timestamp()); err != nil {
		s.audit.RecordAuthEvent(ctx, nil, domain.AuthEventWebhookVerify, false, in.Meta)
		return "", err
	}

	// Replay suppression on top of the freshness window: the identical
	// signed delivery is refused a second time. Guard failures do not veto
	// an otherwise valid delivery.
	if seen, guardErr := s.guard.Seen(ctx, tenantID, in.Signature); guardErr != nil {
		s.log.Warn().Err(guardErr).Str("tenant_id", tenantID).Msg("replay guard check failed, processing anyway")
	} else if seen {
		s.audit.RecordAuthEvent(ctx, nil, domain.AuthEventWebhookVerify, false, in.Meta)
		return "", domain.ErrDuplicateDelivery
	}
	if markErr := s.guard.Mark(ctx, tenantID, in.Signature); markErr != nil {
		s.log.Warn().Err(markErr).Str("tenant_id", tenantID).Msg("failed to mark delivery as seen")
	}

	s.audit.RecordAuthEvent(ctx, nil, domain.AuthEventWebhookVerify, true, in.Meta)
	return tenantID, nil
}

// Sign computes the lowercase-hex HMAC-SHA256 signature for body. Exposed
// for secret provisioning flows and outbound test deliveries.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// signatureValid compares the claimed signature against the computed one in
// constant time. A malformed claim (odd length, non-hex) can never match.
func (s *WebhookService) signatureValid(secret, body []byte, claimed string) bool {
	claimedRaw, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(claimed)))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), claimedRaw)
}

// checkFreshness enforces the replay window: events older than MaxWebhookAge
// are rejected, as are events more than MaxClockSkew in the future. The
// timestamp must carry an explicit timezone.
func (s *WebhookService) checkFreshness(raw string) error {
	if raw == "" {
		return domain.ErrInvalidPayload
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// RFC 3339 requires a zone designator; a bare local timestamp
		// parses without one and is rejected as naive.
		if _, naiveErr := time.Parse("2006-01-02T15:04:05", raw); naiveErr == nil {
			return domain.ErrNaiveTimestamp
		}
		return fmt.Errorf("%w: unparseable timestamp", domain.ErrInvalidPayload)
	}

	age := s.now().Sub(ts)
	if age > domain.MaxWebhookAge {
		return domain.ErrWebhookExpired
	}
	if age < -domain.MaxClockSkew {
		return domain.ErrFutureTimestamp
	}
	return nil
}
