package ml

import (
	"context"
	"fmt"
	"sync"
	"time"

	"flightdelay/internal/features"
	"flightdelay/internal/flight"
)

// MetricsInterface defines the metrics methods the predictor needs.
type MetricsInterface interface {
	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(seconds float64)
	BatchSizeObserve(size float64)
	EncodeErrorsInc()
}

// Predictor applies the resolved estimator to flight records. Prediction is a
// pure function of (model, inputs); the only shared state is the model
// reference, refreshed from the resolver when unset.
type Predictor struct {
	resolver *Resolver
	metrics  MetricsInterface

	mu    sync.RWMutex
	model *ResolvedModel
}

// NewPredictor builds a predictor backed by the given resolver. metrics may
// be nil.
func NewPredictor(resolver *Resolver, metrics MetricsInterface) *Predictor {
	return &Predictor{resolver: resolver, metrics: metrics}
}

// Predict returns one 0/1 delay label per record, preserving input order.
// When the in-memory model reference is unset the predictor requests a fresh
// one from the resolver instead of failing.
func (p *Predictor) Predict(ctx context.Context, records []flight.Record) ([]int, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		}
	}()

	model, err := p.currentModel(ctx)
	if err != nil {
		p.trackFailure()
		return nil, err
	}

	if p.metrics != nil {
		p.metrics.BatchSizeObserve(float64(len(records)))
	}

	// The stand-in answers 0 for everything without touching the encoder.
	if model.Stub() {
		labels := make([]int, len(records))
		p.trackSuccess()
		return labels, nil
	}

	// Encode against the persisted order; the order is never re-derived from
	// the incoming batch.
	X, err := features.EncodeWithColumns(records, model.Columns)
	if err != nil {
		if p.metrics != nil {
			p.metrics.EncodeErrorsInc()
		}
		p.trackFailure()
		return nil, fmt.Errorf("encode prediction batch: %w", err)
	}

	probs := model.Estimator.PredictProba(X)
	labels := make([]int, len(probs))
	for i, prob := range probs {
		if prob >= 0.5 {
			labels[i] = 1
		}
	}
	p.trackSuccess()
	return labels, nil
}

// Model returns the current resolved model, resolving on first use.
func (p *Predictor) Model(ctx context.Context) (*ResolvedModel, error) {
	return p.currentModel(ctx)
}

func (p *Predictor) currentModel(ctx context.Context) (*ResolvedModel, error) {
	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()
	if model != nil {
		return model, nil
	}

	model, err := p.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.model = model
	p.mu.Unlock()
	return model, nil
}

// Reset drops the in-memory model reference; the next prediction re-resolves.
func (p *Predictor) Reset() {
	p.mu.Lock()
	p.model = nil
	p.mu.Unlock()
}

func (p *Predictor) trackSuccess() {
	if p.metrics != nil {
		p.metrics.PredictionsInc()
	}
}

func (p *Predictor) trackFailure() {
	if p.metrics != nil {
		p.metrics.PredictionFailuresInc()
	}
}
