// Package ml implements the delay classifier: two native estimator
// strategies, the training procedure, the versioned model artifact with its
// persisted column order, and the tiered resolution that supplies the serving
// path with a ready model.
package ml

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Estimator strategy names. The strategy is injected configuration checked
// once at training time; anything other than KindBoosted trains the logistic
// fallback rather than failing.
const (
	KindLogistic = "logistic"
	KindBoosted  = "boosted"
	KindStub     = "stub"
)

// Sentinel errors surfaced by training, artifact storage and resolution.
var (
	ErrArtifactNotFound    = errors.New("model artifact not found")
	ErrInsufficientData    = errors.New("insufficient training data")
	ErrResolutionExhausted = errors.New("model resolution exhausted")
)

// Estimator is a fitted (or fittable) binary classifier over dense feature
// rows aligned to the artifact's column order.
type Estimator interface {
	// Fit trains on X (n rows) with binary labels y.
	Fit(X [][]float64, y []int) error
	// PredictProba returns the delay probability per row, in row order.
	PredictProba(X [][]float64) []float64
	// Kind identifies the strategy for artifact (de)serialization.
	Kind() string
	// MarshalParams serializes the fitted parameters for the artifact.
	MarshalParams() (json.RawMessage, error)
}

// estimatorFromParams reconstructs a fitted estimator from artifact contents.
func estimatorFromParams(kind string, params json.RawMessage) (Estimator, error) {
	switch kind {
	case KindLogistic:
		var m LogisticRegression
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("decode logistic params: %w", err)
		}
		return &m, nil
	case KindBoosted:
		var m GradientBoosted
		if err := json.Unmarshal(params, &m); err != nil {
			return nil, fmt.Errorf("decode boosted params: %w", err)
		}
		return &m, nil
	case KindStub:
		return &StandIn{}, nil
	default:
		return nil, fmt.Errorf("unknown estimator kind %q", kind)
	}
}
