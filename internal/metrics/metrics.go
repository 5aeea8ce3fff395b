// Package metrics provides Prometheus metrics for the delay prediction
// service: prediction throughput and latency, model resolution outcomes per
// tier, and analytics sink health. Metrics are exposed on the metrics
// endpoint of the serving binary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the prediction service.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal   prometheus.Counter   // Total predictions served
	PredictionFailures prometheus.Counter   // Total failed prediction requests
	PredictionLatency  prometheus.Histogram // End-to-end prediction latency in seconds
	BatchSize          prometheus.Histogram // Records per prediction request
	EncodeErrors       prometheus.Counter   // Feature encoding failures

	// Model resolution metrics
	ResolutionAttempts *prometheus.CounterVec // Resolution attempts per source tier
	ResolutionFailures *prometheus.CounterVec // Resolution failures per source tier
	StandInUses        prometheus.Counter     // Times the stand-in model was resolved
	ModelLoaded        prometheus.Gauge       // 1 when a model is resolved and cached
	ModelAge           prometheus.Gauge       // Age of the resolved artifact in seconds

	// Analytics sink metrics
	SinkFailures  prometheus.Counter // Failed analytics writes (always swallowed)
	EventsDropped prometheus.Counter // Analytics events dropped on full buffer

	// System metrics
	ErrorsTotal prometheus.Counter // Total errors encountered
}

// New creates and registers all metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry, which keeps tests
// isolated from the global Prometheus state.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of delay predictions served",
		}),
		PredictionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed prediction requests",
		}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_batch_size",
			Help:    "Number of flight records per prediction request",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
		EncodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "encode_errors_total",
			Help: "Total number of feature encoding failures",
		}),
		ResolutionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_resolution_attempts_total",
			Help: "Model resolution attempts per source tier",
		}, []string{"source"}),
		ResolutionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_resolution_failures_total",
			Help: "Model resolution failures per source tier",
		}, []string{"source"}),
		StandInUses: factory.NewCounter(prometheus.CounterOpts{
			Name: "model_stand_in_uses_total",
			Help: "Times resolution fell through to the deterministic stand-in",
		}),
		ModelLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_loaded",
			Help: "Whether a model is resolved and cached (1) or not (0)",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the resolved model artifact in seconds",
		}),
		SinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "analytics_sink_failures_total",
			Help: "Failed analytics sink writes, never surfaced to callers",
		}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "analytics_events_dropped_total",
			Help: "Analytics events dropped because the dispatch buffer was full",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
