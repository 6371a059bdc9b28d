package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	PayoutsCreated     prometheus.Counter
	PayoutTransitions  *prometheus.CounterVec
	AuditStreamDropped prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		PayoutsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_payouts_created_total",
			Help: "Total number of payout requests created",
		}),
		PayoutTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_payout_transitions_total",
			Help: "Payout lifecycle transition attempts by action and outcome",
		}, []string{"action", "outcome"}),
		AuditStreamDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "payflow_audit_stream_dropped_total",
			Help: "Audit entries dropped by the Kafka forwarder inbox",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementPayoutsCreated increments the created counter by 1.
func (m *Metrics) IncrementPayoutsCreated() {
	if m == nil {
		return
	}
	m.PayoutsCreated.Inc()
}

// ObserveTransition records a transition attempt outcome ("success" or
// "failure") for an action.
func (m *Metrics) ObserveTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.PayoutTransitions.WithLabelValues(action, outcome).Inc()
}

// IncrementAuditStreamDropped counts a dropped stream entry.
func (m *Metrics) IncrementAuditStreamDropped() {
	if m == nil {
		return
	}
	m.AuditStreamDropped.Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
