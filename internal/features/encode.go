package features

import (
	"errors"
	"fmt"
	"strconv"

	"flightdelay/internal/flight"
)

// One-hot column prefixes, matching the historical dataset field names.
const (
	prefixAirline    = "OPERA_"
	prefixFlightType = "TIPOVUELO_"
	prefixMonth      = "MES_"
)

// ErrEncodingMismatch marks a persisted column order that cannot be used for
// encoding. Zero-filling and dropping reconcile ordinary differences, so this
// only fires for a malformed order (empty or containing duplicates).
var ErrEncodingMismatch = errors.New("encoding mismatch")

// recordColumns returns the one-hot columns a single record activates, in
// group order: airline, flight type, month.
func recordColumns(rec flight.Record) [3]string {
	return [3]string{
		prefixAirline + rec.Airline,
		prefixFlightType + rec.FlightType,
		prefixMonth + strconv.Itoa(rec.Month),
	}
}

// Encode one-hot encodes records in establish-order mode: the column order is
// the order in which columns are first encountered, and is returned alongside
// the matrix so it can be persisted with the trained estimator.
func Encode(records []flight.Record) ([][]float64, []string) {
	index := make(map[string]int)
	var columns []string
	active := make([][3]string, len(records))

	for i, rec := range records {
		cols := recordColumns(rec)
		for _, c := range cols {
			if _, ok := index[c]; !ok {
				index[c] = len(columns)
				columns = append(columns, c)
			}
		}
		active[i] = cols
	}

	matrix := make([][]float64, len(records))
	for i, cols := range active {
		row := make([]float64, len(columns))
		for _, c := range cols {
			row[index[c]] = 1
		}
		matrix[i] = row
	}
	return matrix, columns
}

// EncodeWithColumns encodes records against a previously persisted column
// order. Columns the batch does not produce stay zero; columns the batch
// produces that are not in the persisted order are silently dropped. Unseen
// categorical values therefore contribute the all-zero pattern for their
// one-hot group.
func EncodeWithColumns(records []flight.Record, columns []string) ([][]float64, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: empty column order", ErrEncodingMismatch)
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q in persisted order", ErrEncodingMismatch, c)
		}
		index[c] = i
	}

	matrix := make([][]float64, len(records))
	for i, rec := range records {
		row := make([]float64, len(columns))
		for _, c := range recordColumns(rec) {
			if j, ok := index[c]; ok {
				row[j] = 1
			}
		}
		matrix[i] = row
	}
	return matrix, nil
}
