// Package metrics holds the Prometheus collectors for clustering runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry      *prometheus.Registry
	runs          *prometheus.CounterVec
	duration      prometheus.Histogram
	emptyClusters prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kcluster",
			Name:      "runs_total",
			Help:      "Clustering requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kcluster",
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed clustering runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		emptyClusters: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kcluster",
			Name:      "empty_clusters_total",
			Help:      "Clusters that ended a run without documents.",
		}),
	}
	m.registry.MustRegister(m.runs, m.duration, m.emptyClusters)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe records one run. sizes is only read when outcome is OutcomeOK.
func (m *Metrics) Observe(outcome string, took time.Duration, sizes []int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	m.duration.Observe(took.Seconds())
	for _, n := range sizes {
		if n == 0 {
			m.emptyClusters.Inc()
		}
	}
}
