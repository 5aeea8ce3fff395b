// Package features turns raw flight records into the fixed-order numeric
// vectors consumed by the estimators. The column order captured at training
// time is the contract: inference must encode against that exact order.
package features

import (
	"time"

	"flightdelay/internal/flight"
)

// Day periods derived from the scheduled departure time.
const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodNight     = "night"
)

// seasonRange is a month/day window within a year, both ends inclusive.
type seasonRange struct {
	startMonth time.Month
	startDay   int
	endMonth   time.Month
	endDay     int
}

var highSeasonRanges = []seasonRange{
	{time.December, 15, time.December, 31},
	{time.January, 1, time.March, 3},
	{time.July, 15, time.July, 31},
	{time.September, 11, time.September, 30},
}

// PeriodDay classifies the scheduled departure into morning (05:00-11:59),
// afternoon (12:00-18:59) or night. Records with a missing or unparseable
// timestamp classify as night.
func PeriodDay(rec flight.Record) string {
	ts, err := rec.ScheduledTime()
	if err != nil {
		return PeriodNight
	}
	minutes := ts.Hour()*60 + ts.Minute()
	switch {
	case minutes >= 5*60 && minutes <= 11*60+59:
		return PeriodMorning
	case minutes >= 12*60 && minutes <= 18*60+59:
		return PeriodAfternoon
	default:
		return PeriodNight
	}
}

// HighSeason reports whether the scheduled date falls inside one of the
// fixed high-demand windows. False when the timestamp is missing.
func HighSeason(rec flight.Record) bool {
	ts, err := rec.ScheduledTime()
	if err != nil {
		return false
	}
	month, day := ts.Month(), ts.Day()
	for _, r := range highSeasonRanges {
		afterStart := month > r.startMonth || (month == r.startMonth && day >= r.startDay)
		beforeEnd := month < r.endMonth || (month == r.endMonth && day <= r.endDay)
		if afterStart && beforeEnd {
			return true
		}
	}
	return false
}

// MinDiff returns the difference between actual and scheduled departure in
// minutes. ok is false when either timestamp is absent or unparseable; no
// value is fabricated in that case.
func MinDiff(rec flight.Record) (float64, bool) {
	scheduled, err := rec.ScheduledTime()
	if err != nil {
		return 0, false
	}
	actual, err := rec.ActualTime()
	if err != nil {
		return 0, false
	}
	return actual.Sub(scheduled).Minutes(), true
}
