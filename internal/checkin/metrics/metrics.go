// Package metrics provides observability for the check-in engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks check-in outcomes and decision latency.
type Metrics struct {
	Granted          prometheus.Counter
	Denied           prometheus.Counter
	Throttled        prometheus.Counter
	DecisionDuration prometheus.Histogram
}

// New creates a Metrics instance with all check-in metrics registered.
func New() *Metrics {
	return &Metrics{
		Granted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_checkins_granted_total",
			Help: "Total number of granted check-ins",
		}),
		Denied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_checkins_denied_total",
			Help: "Total number of denied check-ins",
		}),
		Throttled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "impact_checkins_throttled_total",
			Help: "Total number of check-in attempts rejected by the cooldown window",
		}),
		DecisionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "impact_checkin_decision_duration_seconds",
			Help:    "Duration of check-in decisions (door critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementGranted records a granted check-in.
func (m *Metrics) IncrementGranted() {
	if m == nil {
		return
	}
	m.Granted.Inc()
}

// IncrementDenied records a denied check-in.
func (m *Metrics) IncrementDenied() {
	if m == nil {
		return
	}
	m.Denied.Inc()
}

// IncrementThrottled records a cooldown rejection.
func (m *Metrics) IncrementThrottled() {
	if m == nil {
		return
	}
	m.Throttled.Inc()
}

// ObserveDecision records the duration of a check-in decision.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveDecision(start time.Time) {
	if m == nil {
		return
	}
	m.DecisionDuration.Observe(time.Since(start).Seconds())
}
