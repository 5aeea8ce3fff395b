// Package storage provides the local audit store for served predictions.
// It uses BoltDB as the underlying engine and stores one record per served
// prediction, keyed for efficient airline/time-range queries by offline
// analysis jobs.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const predictionsBucket = "predictions"

// PredictionRecord is one served prediction as persisted for audit.
type PredictionRecord struct {
	Airline    string    `json:"airline"`
	Month      int       `json:"month"`
	FlightType string    `json:"flight_type"`
	Prediction int       `json:"delay_prediction"`
	Source     string    `json:"model_source"`
	Timestamp  time.Time `json:"timestamp"`
}

// Store provides persistent storage for prediction audit records.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the audit database under dataPath and ensures the
// predictions bucket exists.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "predictions.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StorePrediction appends a served prediction to the audit bucket. The key
// format is "airline_timestamp" for efficient range queries.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction record: %w", err)
		}

		key := fmt.Sprintf("%s_%d", rec.Airline, rec.Timestamp.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetPredictions retrieves audit records for an airline within a time range,
// inclusive of both ends, in key order.
func (s *Store) GetPredictions(airline string, start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		c := b.Cursor()

		prefix := []byte(airline + "_")
		startKey := []byte(fmt.Sprintf("%s_%d", airline, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%s_%d", airline, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}

			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}

		return nil
	})

	return records, err
}
