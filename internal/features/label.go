package features

import "flightdelay/internal/flight"

// DelayThresholdMinutes is the departure slack beyond which a flight counts
// as delayed.
const DelayThresholdMinutes = 15.0

// DeriveLabel computes the binary delay label for a record. A label already
// present on the record is authoritative and returned unchanged, without
// validation against the timestamps. Otherwise the label is derived from the
// actual-vs-scheduled difference; ok is false when neither a label nor both
// timestamps are available, letting training mode skip the record.
func DeriveLabel(rec flight.Record) (label int, ok bool) {
	if rec.Delay != nil {
		return *rec.Delay, true
	}
	diff, ok := MinDiff(rec)
	if !ok {
		return 0, false
	}
	if diff > DelayThresholdMinutes {
		return 1, true
	}
	return 0, true
}
