// Package metrics exposes Prometheus instrumentation for search runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "randsearch"

// Metrics holds the collectors for search runs. The zero value is not usable;
// build one with New.
type Metrics struct {
	searches     *prometheus.CounterVec
	evaluations  prometheus.Counter
	improvements prometheus.Counter
	duration     *prometheus.HistogramVec
	running      prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Finished searches by goal and final status.",
		}, []string{"goal", "status"}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Objective evaluations across all searches.",
		}),
		improvements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "improvements_total",
			Help:      "Evaluations that replaced the best candidate.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Wall time of finished searches.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"goal"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "searches_running",
			Help:      "Searches currently in progress.",
		}),
	}

	for _, c := range []prometheus.Collector{m.searches, m.evaluations, m.improvements, m.duration, m.running} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveEvaluation counts one objective evaluation.
func (m *Metrics) ObserveEvaluation(_ float64, improved bool) {
	m.evaluations.Inc()
	if improved {
		m.improvements.Inc()
	}
}

// SearchStarted marks a search as running.
func (m *Metrics) SearchStarted() {
	m.running.Inc()
}

// SearchFinished records the outcome of a search started with SearchStarted.
func (m *Metrics) SearchFinished(goal, status string, elapsed time.Duration) {
	m.running.Dec()
	m.searches.WithLabelValues(goal, status).Inc()
	m.duration.WithLabelValues(goal).Observe(elapsed.Seconds())
}
