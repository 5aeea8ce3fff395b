package ml

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"flightdelay/internal/flight"
)

// separableRecords builds a perfectly separable dataset: one airline pattern
// that is always delayed and one that is always on time.
func separableRecords(n int) []flight.Record {
	one, zero := 1, 0
	records := make([]flight.Record, 0, 2*n)
	for i := 0; i < n; i++ {
		records = append(records, flight.Record{
			Airline: "Delayed Air", FlightType: flight.TypeInternational, Month: 7, Delay: &one,
		})
		records = append(records, flight.Record{
			Airline: "Punctual Air", FlightType: flight.TypeDomestic, Month: 3, Delay: &zero,
		})
	}
	return records
}

func seedPtr(v int64) *int64 { return &v }

func TestTrainInsufficientData(t *testing.T) {
	t.Parallel()

	one := 1

	tests := []struct {
		name    string
		records []flight.Record
	}{
		{"no records", nil},
		{
			"single class",
			[]flight.Record{
				{Airline: "Delayed Air", FlightType: "I", Month: 7, Delay: &one},
				{Airline: "Delayed Air", FlightType: "I", Month: 8, Delay: &one},
			},
		},
		{
			"only unlabeled records",
			[]flight.Record{
				{Airline: "Sky Airline", FlightType: "N", Month: 1},
				{Airline: "Grupo LATAM", FlightType: "I", Month: 2},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Train(tt.records, TrainerConfig{Seed: seedPtr(1)})
			if !errors.Is(err, ErrInsufficientData) {
				t.Errorf("Train() error = %v, want ErrInsufficientData", err)
			}
		})
	}
}

func TestTrainExcludesUnlabeledRecords(t *testing.T) {
	t.Parallel()

	records := separableRecords(30)
	// Records with neither label nor timestamps must not enter the matrix.
	records = append(records,
		flight.Record{Airline: "Ghost Air", FlightType: "N", Month: 5},
		flight.Record{Airline: "Ghost Air", FlightType: "I", Month: 6},
	)

	result, err := Train(records, TrainerConfig{Seed: seedPtr(7), HoldoutFraction: 0.2})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	wantRows := 60 - int(60*0.2)
	if result.Artifact.TrainingRows != wantRows {
		t.Errorf("TrainingRows = %d, want %d", result.Artifact.TrainingRows, wantRows)
	}
	for _, c := range result.Artifact.Columns {
		if strings.Contains(c, "Ghost Air") {
			t.Errorf("unlabeled record leaked into columns: %v", result.Artifact.Columns)
		}
	}
}

func TestTrainDeterministicWithSeed(t *testing.T) {
	t.Parallel()

	records := separableRecords(40)
	cfg := TrainerConfig{Seed: seedPtr(42), LearningRate: 0.5, Epochs: 50}

	a, err := Train(records, cfg)
	if err != nil {
		t.Fatalf("first Train: %v", err)
	}
	b, err := Train(records, cfg)
	if err != nil {
		t.Fatalf("second Train: %v", err)
	}

	if !reflect.DeepEqual(a.Artifact.Columns, b.Artifact.Columns) {
		t.Errorf("columns differ across seeded runs: %v vs %v", a.Artifact.Columns, b.Artifact.Columns)
	}
	if !bytes.Equal(a.Artifact.Params, b.Artifact.Params) {
		t.Error("fitted parameters differ across runs with the same seed")
	}
	if !reflect.DeepEqual(a.HoldoutY, b.HoldoutY) {
		t.Error("holdout partition differs across runs with the same seed")
	}
}

func TestTrainTopColumns(t *testing.T) {
	t.Parallel()

	result, err := Train(separableRecords(20), TrainerConfig{Seed: seedPtr(3), TopColumns: 3})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.Artifact.Columns) != 3 {
		t.Errorf("columns = %d, want 3", len(result.Artifact.Columns))
	}
}

func TestTrainTopColumnsLargerThanAvailable(t *testing.T) {
	t.Parallel()

	result, err := Train(separableRecords(20), TrainerConfig{Seed: seedPtr(3), TopColumns: 100})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	// Two airlines, two types, two months.
	if len(result.Artifact.Columns) != 6 {
		t.Errorf("columns = %d, want all 6", len(result.Artifact.Columns))
	}
}

func TestTrainStrategySelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		strategy string
		want     string
	}{
		{"boosted is explicit", KindBoosted, KindBoosted},
		{"logistic by name", KindLogistic, KindLogistic},
		{"empty strategy falls back", "", KindLogistic},
		{"unknown strategy falls back", "quantum", KindLogistic},
	}

	records := separableRecords(30)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := Train(records, TrainerConfig{Strategy: tt.strategy, Seed: seedPtr(5)})
			if err != nil {
				t.Fatalf("Train: %v", err)
			}
			if result.Artifact.Estimator != tt.want {
				t.Errorf("estimator = %q, want %q", result.Artifact.Estimator, tt.want)
			}
		})
	}
}

func TestTrainedModelSeparatesClasses(t *testing.T) {
	t.Parallel()

	result, err := Train(separableRecords(60), TrainerConfig{
		Seed:         seedPtr(11),
		LearningRate: 0.5,
		Epochs:       300,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if len(result.HoldoutY) == 0 {
		t.Fatal("expected a non-empty holdout partition")
	}

	est, err := result.Artifact.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}

	correct := 0
	probs := est.PredictProba(result.HoldoutX)
	for i, p := range probs {
		label := 0
		if p >= 0.5 {
			label = 1
		}
		if label == result.HoldoutY[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(result.HoldoutY))
	if acc < 0.95 {
		t.Errorf("holdout accuracy = %.2f on separable data, want >= 0.95", acc)
	}
}

func TestTrainBoostedSeparatesClasses(t *testing.T) {
	t.Parallel()

	result, err := Train(separableRecords(60), TrainerConfig{
		Strategy: KindBoosted,
		Seed:     seedPtr(11),
		Rounds:   30,
		MaxDepth: 3,
	})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	est, err := result.Artifact.Model()
	if err != nil {
		t.Fatalf("Model: %v", err)
	}

	correct := 0
	probs := est.PredictProba(result.HoldoutX)
	for i, p := range probs {
		label := 0
		if p >= 0.5 {
			label = 1
		}
		if label == result.HoldoutY[i] {
			correct++
		}
	}
	acc := float64(correct) / float64(len(result.HoldoutY))
	if acc < 0.95 {
		t.Errorf("holdout accuracy = %.2f on separable data, want >= 0.95", acc)
	}
}

func TestSelectBalancedColumns(t *testing.T) {
	t.Parallel()

	// Column 0 activates in half the rows, column 1 always, column 2 never.
	X := [][]float64{
		{1, 1, 0},
		{0, 1, 0},
		{1, 1, 0},
		{0, 1, 0},
	}
	columns := []string{"balanced", "constant_one", "constant_zero"}

	outX, outCols := selectBalancedColumns(X, columns, 1)
	if len(outCols) != 1 || outCols[0] != "balanced" {
		t.Fatalf("kept columns = %v, want [balanced]", outCols)
	}
	want := [][]float64{{1}, {0}, {1}, {0}}
	if !reflect.DeepEqual(outX, want) {
		t.Errorf("projected matrix = %v, want %v", outX, want)
	}
}
