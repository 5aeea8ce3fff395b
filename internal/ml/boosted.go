package ml

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand"
)

// TreeNode is one node of a regression tree in the boosted ensemble. Leaves
// carry the additive value; internal nodes split on row[Feature] <= Threshold
// going left.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Value     float64   `json:"value,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

func (n *TreeNode) eval(row []float64) float64 {
	for !n.Leaf {
		if n.Feature < len(row) && row[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// GradientBoosted is an additive ensemble of shallow regression trees fit on
// the gradient of the logistic loss. Exported fields are the serialized
// artifact parameters.
type GradientBoosted struct {
	Trees        []*TreeNode `json:"trees"`
	BaseScore    float64     `json:"base_score"`
	LearningRate float64     `json:"learning_rate"`
	Rounds       int         `json:"rounds"`
	MaxDepth     int         `json:"max_depth"`

	rng *rand.Rand
}

// NewGradientBoosted returns an unfitted ensemble. A nil seed leaves tie
// breaking non-deterministic across runs.
func NewGradientBoosted(lr float64, rounds, maxDepth int, seed *int64) *GradientBoosted {
	m := &GradientBoosted{
		LearningRate: lr,
		Rounds:       rounds,
		MaxDepth:     maxDepth,
	}
	if seed != nil {
		m.rng = rand.New(rand.NewSource(*seed))
	}
	return m
}

func (m *GradientBoosted) Kind() string { return KindBoosted }

func (m *GradientBoosted) MarshalParams() (json.RawMessage, error) {
	return json.Marshal(m)
}

// Fit grows Rounds trees, each fit to the pseudo-residuals of the logistic
// loss, with Newton-step leaf values.
func (m *GradientBoosted) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return errors.New("boosted: empty training set")
	}
	if len(X) != len(y) {
		return errors.New("boosted: features and labels length mismatch")
	}
	if m.MaxDepth <= 0 {
		m.MaxDepth = 3
	}
	if m.Rounds <= 0 {
		m.Rounds = 50
	}
	if m.LearningRate <= 0 {
		m.LearningRate = 0.1
	}

	// Base score = log-odds of the positive class.
	pos := 0
	for _, label := range y {
		pos += label
	}
	p := float64(pos) / float64(len(y))
	p = math.Min(math.Max(p, 1e-6), 1-1e-6)
	m.BaseScore = math.Log(p / (1 - p))

	scores := make([]float64, len(X))
	for i := range scores {
		scores[i] = m.BaseScore
	}

	m.Trees = make([]*TreeNode, 0, m.Rounds)
	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}

	for round := 0; round < m.Rounds; round++ {
		grad := make([]float64, len(X))
		hess := make([]float64, len(X))
		for i := range X {
			pi := sigmoid(scores[i])
			grad[i] = float64(y[i]) - pi
			hess[i] = pi * (1 - pi)
		}

		tree := m.buildTree(X, grad, hess, indices, 0)
		m.Trees = append(m.Trees, tree)

		for i, row := range X {
			scores[i] += m.LearningRate * tree.eval(row)
		}
	}
	return nil
}

// buildTree grows a regression tree on the residuals by variance reduction.
func (m *GradientBoosted) buildTree(X [][]float64, grad, hess []float64, idx []int, depth int) *TreeNode {
	if depth >= m.MaxDepth || len(idx) < 2 {
		return leafNode(grad, hess, idx)
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	nFeatures := len(X[idx[0]])
	total := residualStats(grad, idx)

	for f := 0; f < nFeatures; f++ {
		// Features are one-hot indicators; a single 0.5 threshold covers every
		// meaningful split for binary columns.
		var left []int
		for _, i := range idx {
			if X[i][f] <= 0.5 {
				left = append(left, i)
			}
		}
		if len(left) == 0 || len(left) == len(idx) {
			continue
		}
		right := len(idx) - len(left)
		leftStats := residualStats(grad, left)
		rightSum := total.sum - leftStats.sum
		gain := leftStats.sum*leftStats.sum/float64(len(left)) +
			rightSum*rightSum/float64(right) -
			total.sum*total.sum/float64(len(idx))
		if gain > bestGain {
			bestFeature, bestThreshold, bestGain = f, 0.5, gain
		}
	}

	if bestFeature < 0 {
		return leafNode(grad, hess, idx)
	}

	var left, right []int
	for _, i := range idx {
		if X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      m.buildTree(X, grad, hess, left, depth+1),
		Right:     m.buildTree(X, grad, hess, right, depth+1),
	}
}

type stats struct{ sum float64 }

func residualStats(grad []float64, idx []int) stats {
	var s stats
	for _, i := range idx {
		s.sum += grad[i]
	}
	return s
}

// leafNode computes the Newton-step leaf value sum(grad)/sum(hess).
func leafNode(grad, hess []float64, idx []int) *TreeNode {
	var g, h float64
	for _, i := range idx {
		g += grad[i]
		h += hess[i]
	}
	if h < 1e-12 {
		return &TreeNode{Leaf: true, Value: 0}
	}
	return &TreeNode{Leaf: true, Value: g / h}
}

// PredictProba returns the delay probability for each row.
func (m *GradientBoosted) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		score := m.BaseScore
		for _, tree := range m.Trees {
			score += m.LearningRate * tree.eval(row)
		}
		out[i] = sigmoid(score)
	}
	return out
}
