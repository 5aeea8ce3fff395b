package analytics

import (
	"context"

	"flightdelay/internal/storage"
)

// StoreSink appends prediction events to the local BoltDB audit store.
type StoreSink struct {
	store *storage.Store
}

func NewStoreSink(store *storage.Store) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Name() string { return "local-store" }

func (s *StoreSink) Log(_ context.Context, ev Event) error {
	return s.store.StorePrediction(storage.PredictionRecord{
		Airline:    ev.Airline,
		Month:      ev.Month,
		FlightType: ev.FlightType,
		Prediction: ev.Prediction,
		Source:     ev.Source,
		Timestamp:  ev.Timestamp,
	})
}
