package ml

import "encoding/json"

// StandIn is the deterministic stand-in model for test and constrained
// environments: every input predicts 0 and no file or network access ever
// happens. Enabled explicitly through configuration, never implicitly.
type StandIn struct{}

func (s *StandIn) Kind() string { return KindStub }

func (s *StandIn) Fit(X [][]float64, y []int) error { return nil }

// PredictProba returns 0 for every row.
func (s *StandIn) PredictProba(X [][]float64) []float64 {
	return make([]float64, len(X))
}

func (s *StandIn) MarshalParams() (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}
