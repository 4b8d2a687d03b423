// Package metrics holds Prometheus metrics for the family data loader.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the loader-side instruments.
type Metrics struct {
	batchSize *prometheus.HistogramVec
}

// New creates and registers all loader metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		batchSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "steeple_loader_batch_size",
			Help:    "Row counts per batched load stage",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		}, []string{"stage"}),
	}
}

// ObserveBatch records the row count of one batched round trip.
func (m *Metrics) ObserveBatch(stage string, n int) {
	m.batchSize.WithLabelValues(stage).Observe(float64(n))
}
