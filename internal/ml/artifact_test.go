package ml

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()
	result, err := Train(separableRecords(30), TrainerConfig{Seed: seedPtr(9)})
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	return result.Artifact
}

func TestArtifactSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	artifact := trainedArtifact(t)
	path := filepath.Join(t.TempDir(), "model.json")

	if err := store.Save(artifact, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.FormatVersion != ArtifactFormatVersion {
		t.Errorf("format version = %d, want %d", loaded.FormatVersion, ArtifactFormatVersion)
	}
	if loaded.Estimator != artifact.Estimator {
		t.Errorf("estimator = %q, want %q", loaded.Estimator, artifact.Estimator)
	}
	if !reflect.DeepEqual(loaded.Columns, artifact.Columns) {
		t.Errorf("columns = %v, want %v", loaded.Columns, artifact.Columns)
	}
	if loaded.TrainingRows != artifact.TrainingRows {
		t.Errorf("training rows = %d, want %d", loaded.TrainingRows, artifact.TrainingRows)
	}

	// The reconstructed estimator must predict exactly like the original.
	orig, err := artifact.Model()
	if err != nil {
		t.Fatalf("original Model: %v", err)
	}
	rebuilt, err := loaded.Model()
	if err != nil {
		t.Fatalf("loaded Model: %v", err)
	}
	X := [][]float64{
		{1, 1, 1, 0, 0, 0},
		{0, 0, 0, 1, 1, 1},
	}
	if !reflect.DeepEqual(orig.PredictProba(X), rebuilt.PredictProba(X)) {
		t.Error("reconstructed estimator diverges from the original")
	}
}

func TestArtifactSaveCreatesDirectories(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	path := filepath.Join(t.TempDir(), "nested", "deeper", "model.json")

	if err := store.Save(trainedArtifact(t), path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestArtifactLoadNotFound(t *testing.T) {
	t.Parallel()

	store := NewArtifactStore()
	_, err := store.Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Load error = %v, want ErrArtifactNotFound", err)
	}
}

func TestArtifactLoadRejectsUnknownVersion(t *testing.T) {
	t.Parallel()

	artifact := trainedArtifact(t)
	artifact.FormatVersion = 99

	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewArtifactStore().Load(path); err == nil {
		t.Error("expected error for unknown format version")
	}
}

func TestArtifactLoadRejectsMissingColumns(t *testing.T) {
	t.Parallel()

	artifact := trainedArtifact(t)
	artifact.Columns = nil

	data, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewArtifactStore().Load(path); err == nil {
		t.Error("expected error for artifact without columns")
	}
}

func TestArtifactLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewArtifactStore().Load(path); err == nil {
		t.Error("expected error for malformed artifact")
	}
}

func TestEstimatorFromParamsUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := estimatorFromParams("perceptron", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for unknown estimator kind")
	}
}
