package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the portal.
type Metrics struct {
	// labels: endpoint={chat,analyze_risk}, outcome={live,placeholder,fallback}
	Generations *prometheus.CounterVec
	// labels: operation={create,confirm,initiate,verify}, outcome={success,rejected,error}
	Payments *prometheus.CounterVec
	// labels: operation
	BackendDuration *prometheus.HistogramVec
	// labels: decision={allow,login,inactive}
	GuardDecisions *prometheus.CounterVec
	SessionsPruned prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurx",
			Name:      "generations_total",
			Help:      "Generated narratives by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurx",
			Name:      "payments_total",
			Help:      "Checkout operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "insurx",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend REST API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "insurx",
			Name:      "guard_decisions_total",
			Help:      "Protected route decisions.",
		}, []string{"decision"}),
		SessionsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "insurx",
			Name:      "sessions_pruned_total",
			Help:      "Expired sessions removed by the prune worker.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Generations,
		m.Payments,
		m.BackendDuration,
		m.GuardDecisions,
		m.SessionsPruned,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as
// many as they need.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
