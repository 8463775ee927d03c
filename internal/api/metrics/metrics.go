// Package metrics defines and registers all custom Prometheus metrics for
// the storefront commerce API. It is the single source of truth for metric
// names, labels, and help strings. Metrics register with the default
// registry at package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// ── Authentication metrics ────────────────────────────────────────────────────

// LoginsTotal counts login attempts by outcome.
// Label:
//   - result: "success", "rejected", "rate_limited", or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by outcome.",
	},
	[]string{"result"},
)

// TokensIssuedTotal counts signed tokens handed out.
// Label:
//   - purpose: "session" or "password_reset"
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of tokens issued, by purpose.",
	},
	[]string{"purpose"},
)

// TokenRejectionsTotal counts tokens that failed verification.
// Label:
//   - reason: "expired", "signature", "purpose", "replayed", or "malformed"
var TokenRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_rejections_total",
		Help:      "Total number of rejected tokens, by rejection reason.",
	},
	[]string{"reason"},
)

// PasswordHashDuration measures the bcrypt slow path. Hashing is expensive
// by design; this histogram makes cost-factor tuning visible.
var PasswordHashDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Duration of password hash computation.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
	},
)

// ── Mail delivery metrics ─────────────────────────────────────────────────────

// ResetEmailsTotal counts password-reset email deliveries.
// Label:
//   - result: "sent" or "failed"
var ResetEmailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_emails_total",
		Help:      "Total number of password reset emails attempted, by result.",
	},
	[]string{"result"},
)

// MailQueueDepth tracks the number of messages waiting in each mail worker
// channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var MailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mail_queue_depth",
		Help:      "Current number of messages pending in each mail worker channel.",
	},
	[]string{"worker_id"},
)
