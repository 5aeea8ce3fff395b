package features

import (
	"math"
	"testing"

	"flightdelay/internal/flight"
)

func TestPeriodDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		scheduled string
		want      string
	}{
		{"morning start", "2017-01-02 05:00:00", PeriodMorning},
		{"morning end", "2017-01-02 11:59:00", PeriodMorning},
		{"afternoon start", "2017-01-02 12:00:00", PeriodAfternoon},
		{"afternoon end", "2017-01-02 18:59:00", PeriodAfternoon},
		{"evening", "2017-01-02 19:00:00", PeriodNight},
		{"midnight", "2017-01-02 00:00:00", PeriodNight},
		{"before dawn", "2017-01-02 04:59:00", PeriodNight},
		{"missing timestamp", "", PeriodNight},
		{"garbage timestamp", "not-a-time", PeriodNight},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := PeriodDay(flight.Record{ScheduledAt: tt.scheduled})
			if got != tt.want {
				t.Errorf("PeriodDay(%q) = %q, want %q", tt.scheduled, got, tt.want)
			}
		})
	}
}

func TestHighSeason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		scheduled string
		want      bool
	}{
		{"mid december", "2017-12-15 10:00:00", true},
		{"december before window", "2017-12-14 23:59:00", false},
		{"new year", "2017-01-01 00:00:00", true},
		{"early march", "2017-03-03 12:00:00", true},
		{"march after window", "2017-03-04 00:00:00", false},
		{"july window", "2017-07-20 08:00:00", true},
		{"july before window", "2017-07-14 08:00:00", false},
		{"september window", "2017-09-11 08:00:00", true},
		{"september end", "2017-09-30 23:00:00", true},
		{"october", "2017-10-01 00:00:00", false},
		{"plain winter day", "2017-06-15 08:00:00", false},
		{"missing timestamp", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := HighSeason(flight.Record{ScheduledAt: tt.scheduled})
			if got != tt.want {
				t.Errorf("HighSeason(%q) = %v, want %v", tt.scheduled, got, tt.want)
			}
		})
	}
}

func TestMinDiff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		scheduled string
		actual    string
		want      float64
		wantOK    bool
	}{
		{"on time", "2017-01-02 10:00:00", "2017-01-02 10:00:00", 0, true},
		{"late", "2017-01-02 10:00:00", "2017-01-02 10:45:00", 45, true},
		{"early departure", "2017-01-02 10:00:00", "2017-01-02 09:50:00", -10, true},
		{"half minute", "2017-01-02 10:00:00", "2017-01-02 10:00:30", 0.5, true},
		{"missing actual", "2017-01-02 10:00:00", "", 0, false},
		{"missing scheduled", "", "2017-01-02 10:00:00", 0, false},
		{"both missing", "", "", 0, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := MinDiff(flight.Record{ScheduledAt: tt.scheduled, ActualAt: tt.actual})
			if ok != tt.wantOK {
				t.Fatalf("MinDiff ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MinDiff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveLabel(t *testing.T) {
	t.Parallel()

	one := 1
	zero := 0

	tests := []struct {
		name   string
		rec    flight.Record
		want   int
		wantOK bool
	}{
		{
			name:   "explicit label wins over timestamps",
			rec:    flight.Record{Delay: &one, ScheduledAt: "2017-01-02 10:00:00", ActualAt: "2017-01-02 10:00:00"},
			want:   1,
			wantOK: true,
		},
		{
			name:   "explicit zero label",
			rec:    flight.Record{Delay: &zero},
			want:   0,
			wantOK: true,
		},
		{
			name:   "derived delayed",
			rec:    flight.Record{ScheduledAt: "2017-01-02 10:00:00", ActualAt: "2017-01-02 10:16:00"},
			want:   1,
			wantOK: true,
		},
		{
			name:   "exactly fifteen minutes is on time",
			rec:    flight.Record{ScheduledAt: "2017-01-02 10:00:00", ActualAt: "2017-01-02 10:15:00"},
			want:   0,
			wantOK: true,
		},
		{
			name:   "no label and no timestamps",
			rec:    flight.Record{Airline: "Sky Airline"},
			wantOK: false,
		},
		{
			name:   "no label and only scheduled",
			rec:    flight.Record{ScheduledAt: "2017-01-02 10:00:00"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := DeriveLabel(tt.rec)
			if ok != tt.wantOK {
				t.Fatalf("DeriveLabel ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("DeriveLabel = %d, want %d", got, tt.want)
			}
		})
	}
}
