package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// ArtifactFormatVersion is bumped whenever the envelope layout changes.
// Loading rejects versions it does not understand instead of guessing.
const ArtifactFormatVersion = 1

// Artifact is the persisted model: fitted estimator parameters plus the
// exact column order the estimator was trained against. Written once per
// training run, never mutated; retraining replaces the file atomically.
type Artifact struct {
	FormatVersion int             `json:"format_version"`
	Estimator     string          `json:"estimator"`
	Columns       []string        `json:"columns"`
	Params        json.RawMessage `json:"params"`
	TrainedAt     time.Time       `json:"trained_at"`
	TrainingRows  int             `json:"training_rows"`
}

// Model reconstructs the fitted estimator from the artifact parameters.
func (a *Artifact) Model() (Estimator, error) {
	return estimatorFromParams(a.Estimator, a.Params)
}

// NewArtifact packages a fitted estimator with its canonical column order.
func NewArtifact(est Estimator, columns []string, trainingRows int) (*Artifact, error) {
	params, err := est.MarshalParams()
	if err != nil {
		return nil, fmt.Errorf("marshal estimator params: %w", err)
	}
	return &Artifact{
		FormatVersion: ArtifactFormatVersion,
		Estimator:     est.Kind(),
		Columns:       columns,
		Params:        params,
		TrainedAt:     time.Now().UTC(),
		TrainingRows:  trainingRows,
	}, nil
}

// ArtifactStore persists artifacts to local files. Saves are atomic from the
// reader's perspective: the new artifact is written to a temp file in the
// same directory and renamed over the destination.
type ArtifactStore struct{}

func NewArtifactStore() *ArtifactStore { return &ArtifactStore{} }

// Save durably writes the artifact at path.
func (s *ArtifactStore) Save(a *Artifact, path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create artifact dir: %w", err)
		}
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	log.Info().
		Str("path", path).
		Str("estimator", a.Estimator).
		Int("columns", len(a.Columns)).
		Int("training_rows", a.TrainingRows).
		Msg("model artifact saved")
	return nil
}

// Load reads a previously saved artifact, returning ErrArtifactNotFound when
// nothing exists at path.
func (s *ArtifactStore) Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}

	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	if a.FormatVersion != ArtifactFormatVersion {
		return nil, fmt.Errorf("unsupported artifact format version %d in %s", a.FormatVersion, path)
	}
	if len(a.Columns) == 0 {
		return nil, fmt.Errorf("artifact %s carries no column order", path)
	}
	return &a, nil
}

// writeFileAtomic writes data to a sibling temp file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
