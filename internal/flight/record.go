// Package flight defines the flight observation record shared by the
// training pipeline and the prediction API, plus the CSV loader for
// historical datasets.
package flight

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp layout used by the historical dataset
// for scheduled and actual departure times.
const TimeLayout = "2006-01-02 15:04:05"

// Flight type codes.
const (
	TypeDomestic      = "N"
	TypeInternational = "I"
)

// Record is a single flight observation. ScheduledAt and ActualAt carry the
// raw dataset timestamps and may be empty (API requests never include them).
// Delay, when non-nil, is an already-derived label that takes precedence over
// any recomputation.
type Record struct {
	Airline     string // OPERA
	FlightType  string // TIPOVUELO: N or I
	Month       int    // MES: 1-12
	ScheduledAt string // Fecha-I
	ActualAt    string // Fecha-O
	Delay       *int
}

// ScheduledTime parses the scheduled departure timestamp.
func (r Record) ScheduledTime() (time.Time, error) {
	return time.Parse(TimeLayout, r.ScheduledAt)
}

// ActualTime parses the actual departure timestamp.
func (r Record) ActualTime() (time.Time, error) {
	return time.Parse(TimeLayout, r.ActualAt)
}

// Validate checks the fields a prediction request must carry. Airlines are
// deliberately not checked against a known set: an unseen carrier encodes as
// the all-zero pattern for its one-hot group instead of being rejected.
func (r Record) Validate() error {
	if r.Airline == "" {
		return fmt.Errorf("airline (OPERA) is required")
	}
	if r.FlightType != TypeDomestic && r.FlightType != TypeInternational {
		return fmt.Errorf("invalid flight type (TIPOVUELO) %q: must be %q or %q", r.FlightType, TypeDomestic, TypeInternational)
	}
	if r.Month < 1 || r.Month > 12 {
		return fmt.Errorf("invalid month (MES) %d: must be between 1 and 12", r.Month)
	}
	return nil
}
