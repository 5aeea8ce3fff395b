package ml

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
)

// LogisticRegression is a binary classifier trained with mini-batch gradient
// descent on binary cross-entropy. Exported fields are the serialized
// artifact parameters.
type LogisticRegression struct {
	Weights      []float64 `json:"weights"`
	Bias         float64   `json:"bias"`
	LearningRate float64   `json:"learning_rate"`
	Epochs       int       `json:"epochs"`
	BatchSize    int       `json:"batch_size"`

	rng *rand.Rand
}

// NewLogisticRegression returns an unfitted model. A nil seed leaves weight
// initialization and batch shuffling non-deterministic.
func NewLogisticRegression(lr float64, epochs, batchSize int, seed *int64) *LogisticRegression {
	m := &LogisticRegression{
		LearningRate: lr,
		Epochs:       epochs,
		BatchSize:    batchSize,
	}
	if seed != nil {
		m.rng = rand.New(rand.NewSource(*seed))
	} else {
		m.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return m
}

func (m *LogisticRegression) Kind() string { return KindLogistic }

func (m *LogisticRegression) MarshalParams() (json.RawMessage, error) {
	return json.Marshal(m)
}

// Fit trains on X with binary labels y using mini-batch gradient descent.
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("logistic: empty training set")
	}
	if len(X) != len(y) {
		return errors.New("logistic: features and labels length mismatch")
	}
	nFeatures := len(X[0])

	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(rand.Int63()))
	}

	// Small random init to break symmetry.
	m.Weights = make([]float64, nFeatures)
	for i := range m.Weights {
		m.Weights[i] = m.rng.NormFloat64() * 0.01
	}
	m.Bias = 0

	batch := m.BatchSize
	if batch <= 0 || batch > len(X) {
		batch = len(X)
	}

	for epoch := 0; epoch < m.Epochs; epoch++ {
		order := m.rng.Perm(len(X))
		for start := 0; start < len(order); start += batch {
			end := start + batch
			if end > len(order) {
				end = len(order)
			}
			m.step(X, y, order[start:end])
		}
	}
	return nil
}

// step applies one gradient update over the given sample indices.
func (m *LogisticRegression) step(X [][]float64, y []int, idx []int) {
	gradW := make([]float64, len(m.Weights))
	gradB := 0.0
	n := float64(len(idx))

	for _, i := range idx {
		p := sigmoid(m.decision(X[i]))
		// d(BCE)/d(logit) = p - y
		d := (p - float64(y[i])) / n
		for j, v := range X[i] {
			gradW[j] += d * v
		}
		gradB += d
	}

	for j := range m.Weights {
		m.Weights[j] -= m.LearningRate * gradW[j]
	}
	m.Bias -= m.LearningRate * gradB
}

func (m *LogisticRegression) decision(row []float64) float64 {
	sum := m.Bias
	for j, v := range row {
		if j < len(m.Weights) {
			sum += m.Weights[j] * v
		}
	}
	return sum
}

// PredictProba returns the delay probability for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = sigmoid(m.decision(row))
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
