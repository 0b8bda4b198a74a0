package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds the Prometheus collectors of the evaluation server.
type Collectors struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration *prometheus.HistogramVec
	BatchInstances     prometheus.Histogram
}

// NewCollectors creates the collectors and registers them on reg.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "objrank_metric_evaluations_total",
				Help: "Total metric evaluations by metric name and status (ok, nan, error).",
			},
			[]string{"metric", "status"},
		),
		EvaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "objrank_request_duration_seconds",
				Help:    "Evaluation request latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"route"},
		),
		BatchInstances: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "objrank_batch_instances",
				Help:    "Number of instances per evaluated batch.",
				Buckets: []float64{1, 10, 100, 1000, 10000},
			},
		),
	}

	reg.MustRegister(c.EvaluationsTotal, c.EvaluationDuration, c.BatchInstances)
	return c
}
