package flight

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Dataset column headers as they appear in the historical CSV export.
const (
	colScheduled = "Fecha-I"
	colActual    = "Fecha-O"
	colAirline   = "OPERA"
	colFlightTyp = "TIPOVUELO"
	colMonth     = "MES"
	colDelay     = "delay"
)

// LoadCSV reads historical flight records from a CSV file. Rows with a
// malformed month are skipped and counted rather than failing the whole load;
// missing timestamps and labels are kept as empty/absent so that label
// derivation can decide what to do with them.
func LoadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	records, skipped, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("records", len(records)).
		Int("skipped", skipped).
		Msg("historical dataset loaded")

	return records, nil
}

// ReadCSV parses flight records from r. It returns the parsed records and the
// number of rows skipped because of malformed required fields.
func ReadCSV(r io.Reader) ([]Record, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, required := range []string{colAirline, colFlightTyp, colMonth} {
		if _, ok := idx[required]; !ok {
			return nil, 0, fmt.Errorf("missing required column %q", required)
		}
	}

	var records []Record
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		month, err := strconv.Atoi(field(colMonth))
		if err != nil || month < 1 || month > 12 {
			skipped++
			continue
		}

		rec := Record{
			Airline:     field(colAirline),
			FlightType:  field(colFlightTyp),
			Month:       month,
			ScheduledAt: field(colScheduled),
			ActualAt:    field(colActual),
		}
		if raw := field(colDelay); raw != "" {
			if label, err := strconv.Atoi(raw); err == nil && (label == 0 || label == 1) {
				rec.Delay = &label
			}
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}
