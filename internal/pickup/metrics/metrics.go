// Package metrics holds Prometheus metrics for the pickup engine.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pickup-side instruments.
type Metrics struct {
	verdicts       *prometheus.CounterVec
	recorded       *prometheus.CounterVec
	blockedBypass  prometheus.Counter
	recordDuration prometheus.Histogram
}

// New creates and registers all pickup metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "steeple_pickup_verdicts_total",
			Help: "Verification verdicts by resolved level and outcome",
		}, []string{"level", "authorized"}),
		recorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "steeple_pickup_recorded_total",
			Help: "Recorded releases by override usage",
		}, []string{"override"}),
		blockedBypass: promauto.NewCounter(prometheus.CounterOpts{
			Name: "steeple_pickup_blocked_bypass_total",
			Help: "Rejected attempts to override a never-level block",
		}),
		recordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "steeple_pickup_record_duration_seconds",
			Help:    "RecordPickup transaction latency",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5},
		}),
	}
}

// IncVerdict counts one verification verdict.
func (m *Metrics) IncVerdict(level string, authorized bool) {
	m.verdicts.WithLabelValues(level, strconv.FormatBool(authorized)).Inc()
}

// IncRecorded counts one recorded release.
func (m *Metrics) IncRecorded(override bool) {
	m.recorded.WithLabelValues(strconv.FormatBool(override)).Inc()
}

// IncBlockedBypass counts one rejected never-level bypass attempt.
func (m *Metrics) IncBlockedBypass() {
	m.blockedBypass.Inc()
}

// ObserveRecord records one RecordPickup duration.
func (m *Metrics) ObserveRecord(elapsed time.Duration) {
	m.recordDuration.Observe(elapsed.Seconds())
}
