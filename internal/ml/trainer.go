package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog/log"

	"flightdelay/internal/features"
	"flightdelay/internal/flight"
)

// DefaultHoldoutFraction is the share of encoded data held out for an
// external evaluator. The trainer never scores it itself.
const DefaultHoldoutFraction = 0.33

// TrainerConfig carries the injected training configuration. Strategy is an
// enumerated capability flag: KindBoosted selects gradient-boosted trees,
// anything else trains logistic regression.
type TrainerConfig struct {
	Strategy        string
	TopColumns      int // keep the N most balanced columns; 0 keeps all
	HoldoutFraction float64
	Seed            *int64 // nil means non-deterministic split and init

	// Logistic hyperparameters.
	LearningRate float64
	Epochs       int
	BatchSize    int

	// Boosted hyperparameters.
	Rounds   int
	MaxDepth int
}

// TrainResult is the trainer output: the persistable artifact and the
// held-out validation partition for external evaluation.
type TrainResult struct {
	Artifact *Artifact
	HoldoutX [][]float64
	HoldoutY []int
}

// Train encodes the records in establish-order mode, derives labels, fits the
// configured estimator on a train partition and packages the artifact.
// Records lacking both a label and the timestamps to derive one are excluded.
// Training fails with ErrInsufficientData when no usable record remains or
// only one label class is present; nothing is persisted on failure.
func Train(records []flight.Record, cfg TrainerConfig) (*TrainResult, error) {
	usable := make([]flight.Record, 0, len(records))
	labels := make([]int, 0, len(records))
	excluded := 0
	for _, rec := range records {
		label, ok := features.DeriveLabel(rec)
		if !ok {
			excluded++
			continue
		}
		usable = append(usable, rec)
		labels = append(labels, label)
	}
	if excluded > 0 {
		log.Warn().Int("excluded", excluded).Msg("records without label or timestamps excluded from training")
	}
	if len(usable) == 0 {
		return nil, fmt.Errorf("%w: no usable records", ErrInsufficientData)
	}
	if singleClass(labels) {
		return nil, fmt.Errorf("%w: fewer than two label classes", ErrInsufficientData)
	}

	X, columns := features.Encode(usable)
	if cfg.TopColumns > 0 && cfg.TopColumns < len(columns) {
		X, columns = selectBalancedColumns(X, columns, cfg.TopColumns)
	}

	holdout := cfg.HoldoutFraction
	if holdout <= 0 || holdout >= 1 {
		holdout = DefaultHoldoutFraction
	}
	trainX, trainY, holdX, holdY := split(X, labels, holdout, cfg.Seed)
	if len(trainX) == 0 || singleClass(trainY) {
		return nil, fmt.Errorf("%w: training partition degenerate after split", ErrInsufficientData)
	}

	est := newEstimator(cfg)
	log.Info().
		Str("estimator", est.Kind()).
		Int("train_rows", len(trainX)).
		Int("holdout_rows", len(holdX)).
		Int("columns", len(columns)).
		Msg("fitting classifier")
	if err := est.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit %s estimator: %w", est.Kind(), err)
	}

	artifact, err := NewArtifact(est, columns, len(trainX))
	if err != nil {
		return nil, err
	}
	return &TrainResult{Artifact: artifact, HoldoutX: holdX, HoldoutY: holdY}, nil
}

// newEstimator maps the configured strategy to an estimator. The boosted
// strategy must be requested explicitly; every other value falls back to
// logistic regression so that training never fails on a capability flag.
func newEstimator(cfg TrainerConfig) Estimator {
	lr := cfg.LearningRate
	if lr <= 0 {
		lr = 0.1
	}
	if cfg.Strategy == KindBoosted {
		return NewGradientBoosted(lr, cfg.Rounds, cfg.MaxDepth, cfg.Seed)
	}
	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = 100
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return NewLogisticRegression(lr, epochs, batch, cfg.Seed)
}

// selectBalancedColumns keeps the n columns whose activation rate is closest
// to 0.5, preserving their canonical relative order.
func selectBalancedColumns(X [][]float64, columns []string, n int) ([][]float64, []string) {
	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(columns))
	for j := range columns {
		sum := 0.0
		for i := range X {
			sum += X[i][j]
		}
		mean := sum / float64(len(X))
		scores[j] = scored{idx: j, score: math.Abs(mean - 0.5)}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].score < scores[b].score })

	keep := make([]int, n)
	for i := 0; i < n; i++ {
		keep[i] = scores[i].idx
	}
	sort.Ints(keep)

	outCols := make([]string, n)
	for i, j := range keep {
		outCols[i] = columns[j]
	}
	outX := make([][]float64, len(X))
	for i, row := range X {
		projected := make([]float64, n)
		for k, j := range keep {
			projected[k] = row[j]
		}
		outX[i] = projected
	}
	return outX, outCols
}

// split shuffles and partitions the data, holding out the given fraction.
// The shuffle is deterministic only when a seed is supplied.
func split(X [][]float64, y []int, holdout float64, seed *int64) (trainX [][]float64, trainY []int, holdX [][]float64, holdY []int) {
	var rng *rand.Rand
	if seed != nil {
		rng = rand.New(rand.NewSource(*seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	order := rng.Perm(len(X))
	nHold := int(float64(len(X)) * holdout)
	for i, idx := range order {
		if i < nHold {
			holdX = append(holdX, X[idx])
			holdY = append(holdY, y[idx])
		} else {
			trainX = append(trainX, X[idx])
			trainY = append(trainY, y[idx])
		}
	}
	return trainX, trainY, holdX, holdY
}

func singleClass(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, l := range labels[1:] {
		if l != first {
			return false
		}
	}
	return true
}
