package ml

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Resolution source tiers, in priority order.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
	SourceStub   = "stub"
)

// ResolvedModel is a ready-to-serve estimator with the column order it was
// trained against. Stub resolutions carry no columns; the predictor short
// circuits them.
type ResolvedModel struct {
	Estimator Estimator
	Columns   []string
	Source    string
	TrainedAt time.Time
}

// Stub reports whether this is the deterministic stand-in.
func (m *ResolvedModel) Stub() bool { return m.Source == SourceStub }

// ResolverConfig controls the three resolution tiers.
type ResolverConfig struct {
	ArtifactPath  string
	RemoteURL     string // empty disables the remote tier
	DisableRemote bool   // administrative kill switch for the remote tier
	UseStub       bool   // explicit opt-in, test/non-production only
	FetchTimeout  time.Duration
}

// ResolutionTracker is the narrow metrics surface the resolver needs.
type ResolutionTracker interface {
	ResolutionAttemptInc(source string)
	ResolutionFailureInc(source string)
	StandInUseInc()
	ModelLoadedSet(loaded bool)
	ModelAgeSet(seconds float64)
}

// Resolver decides which model source serves predictions: local artifact,
// remote blob fetched into the local path, or the deterministic stand-in.
// The first successful resolution is cached process-wide; failures are never
// cached and the next request retries the full tier sequence.
type Resolver struct {
	cfg     ResolverConfig
	store   *ArtifactStore
	fetcher *BlobFetcher
	metrics ResolutionTracker

	mu     sync.Mutex
	cached *ResolvedModel
}

// NewResolver builds a resolver. metrics may be nil.
func NewResolver(cfg ResolverConfig, store *ArtifactStore, metrics ResolutionTracker) *Resolver {
	r := &Resolver{cfg: cfg, store: store, metrics: metrics}
	if cfg.RemoteURL != "" && !cfg.DisableRemote {
		r.fetcher = NewBlobFetcher(cfg.RemoteURL, cfg.FetchTimeout)
	}
	return r
}

// Resolve returns the cached model or runs the tier sequence. Resolution is a
// single critical section: concurrent first-time callers serialize here and
// all observe the one cached result.
func (r *Resolver) Resolve(ctx context.Context) (*ResolvedModel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cached != nil {
		return r.cached, nil
	}

	// Tier 1: local artifact.
	if model, err := r.resolveLocal(); err == nil {
		r.cache(model)
		return model, nil
	} else {
		log.Debug().Err(err).Str("path", r.cfg.ArtifactPath).Msg("local artifact unavailable")
	}

	// Tier 2: remote blob fetched into the local path, then re-read locally.
	if r.fetcher != nil {
		r.track(SourceRemote)
		if err := r.fetcher.Fetch(ctx, r.cfg.ArtifactPath); err != nil {
			r.trackFailure(SourceRemote)
			log.Warn().Err(err).Msg("remote artifact fetch failed")
		} else if model, err := r.resolveLocal(); err == nil {
			model.Source = SourceRemote
			r.cache(model)
			return model, nil
		} else {
			r.trackFailure(SourceRemote)
			log.Warn().Err(err).Msg("fetched artifact failed to load")
		}
	}

	// Tier 3: deterministic stand-in, only when explicitly enabled.
	if r.cfg.UseStub {
		if r.metrics != nil {
			r.metrics.StandInUseInc()
		}
		model := &ResolvedModel{Estimator: &StandIn{}, Source: SourceStub, TrainedAt: time.Now().UTC()}
		r.cache(model)
		log.Warn().Msg("serving with deterministic stand-in model")
		return model, nil
	}

	if r.metrics != nil {
		r.metrics.ModelLoadedSet(false)
	}
	return nil, fmt.Errorf("%w: local=%s remote_enabled=%t stub_enabled=%t",
		ErrResolutionExhausted, r.cfg.ArtifactPath, r.fetcher != nil, r.cfg.UseStub)
}

// Cached returns the resolved model without attempting resolution.
func (r *Resolver) Cached() *ResolvedModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached
}

// Invalidate drops the cached model so the next request re-resolves, e.g.
// after a retraining run replaced the artifact.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
}

func (r *Resolver) resolveLocal() (*ResolvedModel, error) {
	r.track(SourceLocal)
	artifact, err := r.store.Load(r.cfg.ArtifactPath)
	if err != nil {
		r.trackFailure(SourceLocal)
		return nil, err
	}
	est, err := artifact.Model()
	if err != nil {
		r.trackFailure(SourceLocal)
		return nil, err
	}
	return &ResolvedModel{
		Estimator: est,
		Columns:   artifact.Columns,
		Source:    SourceLocal,
		TrainedAt: artifact.TrainedAt,
	}, nil
}

func (r *Resolver) cache(model *ResolvedModel) {
	r.cached = model
	if r.metrics != nil {
		r.metrics.ModelLoadedSet(true)
		if !model.TrainedAt.IsZero() {
			r.metrics.ModelAgeSet(time.Since(model.TrainedAt).Seconds())
		}
	}
	log.Info().
		Str("source", model.Source).
		Int("columns", len(model.Columns)).
		Time("trained_at", model.TrainedAt).
		Msg("model resolved")
}

func (r *Resolver) track(source string) {
	if r.metrics != nil {
		r.metrics.ResolutionAttemptInc(source)
	}
}

func (r *Resolver) trackFailure(source string) {
	if r.metrics != nil {
		r.metrics.ResolutionFailureInc(source)
	}
}
