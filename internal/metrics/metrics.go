// Package metrics defines the custom Prometheus metrics for the identity
// service. It is the single source of truth for metric names, labels, and
// help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// LoginAttemptsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "invalid_credentials", "locked", or "password_expired"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, labelled by outcome.",
	},
	[]string{"result"},
)

// AccountLockoutsTotal counts accounts locked after exceeding the failed
// attempt threshold.
var AccountLockoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_lockouts_total",
		Help:      "Total number of accounts locked due to repeated failed logins.",
	},
)

// WebhookVerificationsTotal counts webhook verification attempts by outcome.
// Label:
//   - result: "success", "signature_mismatch", "expired", "future",
//     "duplicate", "unknown_tenant", or "invalid"
var WebhookVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_verifications_total",
		Help:      "Total number of webhook signature verifications, labelled by outcome.",
	},
	[]string{"result"},
)

// WebhookReplayHitsTotal counts deliveries rejected because their
// signature was already seen inside the replay window.
var WebhookReplayHitsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_replay_hits_total",
		Help:      "Total number of webhook deliveries rejected as replays.",
	},
)

// AuditEntriesDroppedTotal counts audit entries dropped because the
// dispatcher buffer was full.
var AuditEntriesDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_dropped_total",
		Help:      "Total number of audit entries dropped under backpressure.",
	},
)
