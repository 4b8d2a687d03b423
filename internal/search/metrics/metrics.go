// Package metrics holds Prometheus metrics for the search service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the search-side instruments.
type Metrics struct {
	searchDuration *prometheus.HistogramVec
	resultCounts   *prometheus.HistogramVec
	paddingRuns    *prometheus.CounterVec
	lockouts       prometheus.Counter
}

// New creates and registers all search metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		searchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steeple_search_duration_seconds",
			Help:    "Identity search latency by modality, padding included",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"mode"}),
		resultCounts: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steeple_search_results",
			Help:    "Result counts per search by modality",
			Buckets: []float64{0, 1, 2, 5, 10, 20},
		}, []string{"mode"}),
		paddingRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "steeple_search_padding_runs_total",
			Help: "Searches that ran timing padding after an empty result",
		}, []string{"mode"}),
		lockouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "steeple_search_code_lockouts_total",
			Help: "Terminals locked out for excessive failed code lookups",
		}),
	}
}

// ObserveSearch records one search execution.
func (m *Metrics) ObserveSearch(mode string, elapsed time.Duration) {
	m.searchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// ObserveResults records how many families (or code hits) a search returned.
func (m *Metrics) ObserveResults(mode string, n int) {
	m.resultCounts.WithLabelValues(mode).Observe(float64(n))
}

// IncPadding counts one padded (empty-result) search.
func (m *Metrics) IncPadding(mode string) {
	m.paddingRuns.WithLabelValues(mode).Inc()
}

// IncLockouts counts one tripped code-guess lockout.
func (m *Metrics) IncLockouts() {
	m.lockouts.Inc()
}
