package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-level Prometheus metrics. Feature-specific
// metrics (the check-in engine's) live next to their feature.
type Metrics struct {
	MembersCreated  prometheus.Counter
	PassesPurchased prometheus.Counter
	RequestLatency  *prometheus.HistogramVec
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		MembersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_members_created_total",
			Help: "Total number of members created in the system",
		}),
		PassesPurchased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_member_passes_purchased_total",
			Help: "Total number of member passes purchased",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "impact_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// IncrementMembersCreated increments the members created counter by 1.
func (m *Metrics) IncrementMembersCreated() {
	if m == nil {
		return
	}
	m.MembersCreated.Inc()
}

// IncrementPassesPurchased increments the passes purchased counter by 1.
func (m *Metrics) IncrementPassesPurchased() {
	if m == nil {
		return
	}
	m.PassesPurchased.Inc()
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(route, status).Observe(seconds)
}
