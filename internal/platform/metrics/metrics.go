package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	VerificationsCompleted *prometheus.CounterVec
	VerificationsStarted   prometheus.Counter
	ManualSubmissions      prometheus.Counter
	ManualDecisions        *prometheus.CounterVec
	WebhookRecords         prometheus.Counter
	RosterLookups          *prometheus.CounterVec
	HTTPDuration           *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VerificationsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_verifications_completed_total",
			Help: "Completed verifications by path (login, membership, manual).",
		}, []string{"path"}),
		VerificationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_verifications_started_total",
			Help: "Verification flows started.",
		}),
		ManualSubmissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_manual_submissions_total",
			Help: "Manual review requests submitted.",
		}),
		ManualDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_manual_decisions_total",
			Help: "Committee decisions on manual requests by outcome.",
		}, []string{"outcome"}),
		WebhookRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gatehouse_webhook_records_total",
			Help: "Pending records accepted from the identity provider webhook.",
		}),
		RosterLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gatehouse_roster_lookups_total",
			Help: "Membership roster lookups by result (hit, miss, error).",
		}, []string{"result"}),
		HTTPDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatehouse_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}
