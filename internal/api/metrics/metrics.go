// Package metrics defines the custom Prometheus metrics of the account
// service. It is the single source of truth for metric names, labels and
// help strings. Metrics register with the default registry at init through
// promauto; HTTP request metrics come from echoprometheus in the router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "account"

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login calls.
// Labels:
//   - kind: "user" or "admin" (which login endpoint was used)
//   - result: "success", "rejected" or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by endpoint kind and result.",
	},
	[]string{"kind", "result"},
)

// SessionsIssuedTotal counts tokens handed out (logins and password changes).
var SessionsIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_issued_total",
		Help:      "Total number of session tokens issued.",
	},
)

// SessionsInvalidatedTotal counts tokens retired through the API.
// Label:
//   - reason: "logout", "password_change", "account_deleted"
var SessionsInvalidatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_invalidated_total",
		Help:      "Total number of session tokens invalidated, by reason.",
	},
	[]string{"reason"},
)

// AuthorizationFailuresTotal counts requests refused with 401.
// Label:
//   - reason: "missing_token" (no credential presented) or "rejected"
var AuthorizationFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_failures_total",
		Help:      "Total number of requests rejected as unauthorized.",
	},
	[]string{"reason"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of session events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsWrittenTotal counts session events persisted to the audit trail.
// Label:
//   - type: session event type (e.g. "login", "logout")
var AuditEventsWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_written_total",
		Help:      "Total number of session events written to the audit trail.",
	},
	[]string{"type"},
)

// AuditEventsDroppedTotal counts events discarded because a queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of session events dropped because the audit queue was full.",
	},
)
