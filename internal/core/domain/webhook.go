package domain

import (
	"errors"
	"regexp"
	"time"
)

const (
	// MaxWebhookAge is how far in the past an event timestamp may lie.
	// Boundary behavior: age strictly greater than MaxWebhookAge rejects,
	// so an event exactly 300s old is still accepted.
	MaxWebhookAge = 300 * time.Second

	// MaxClockSkew is how far in the future an event timestamp may lie.
	// The asymmetry against MaxWebhookAge is deliberate; do not symmetrize.
	MaxClockSkew = 30 * time.Second
)

var ErrInvalidPayload = errors.New("webhook payload is not valid JSON")
var ErrMissingTenant = errors.New("webhook payload is missing tenant_id")
var ErrInvalidTenantFormat = errors.New("tenant_id has invalid format")
var ErrUnknownTenant = errors.New("unknown tenant")
var ErrSignatureMismatch = errors.New("webhook signature mismatch")
var ErrNaiveTimestamp = errors.New("webhook timestamp lacks a timezone")
var ErrWebhookExpired = errors.New("webhook timestamp too old")
var ErrFutureTimestamp = errors.New("webhook timestamp in the future")
var ErrDuplicateDelivery = errors.New("duplicate webhook delivery")

// tenantIDPattern: lowercase ASCII letters, digits, and hyphens only.
var tenantIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidTenantID reports whether s is a well-formed tenant identifier.
func ValidTenantID(s string) bool {
	return s != "" && tenantIDPattern.MatchString(s)
}
