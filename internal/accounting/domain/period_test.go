package accounting

import (
	"errors"
	"testing"
	"time"
)

func TestRangeFor(t *testing.T) {
	utc := time.UTC
	cases := []struct {
		name   string
		period Period
		year   int
		month  int
		start  time.Time
		end    time.Time
	}{
		{"month", PeriodMonth, 2024, 2, time.Date(2024, 2, 1, 0, 0, 0, 0, utc), time.Date(2024, 2, 29, 23, 59, 59, 0, utc)},
		{"month december", PeriodMonth, 2023, 12, time.Date(2023, 12, 1, 0, 0, 0, 0, utc), time.Date(2023, 12, 31, 23, 59, 59, 0, utc)},
		{"month without month", PeriodMonth, 2024, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, utc), time.Date(2024, 12, 31, 23, 59, 59, 0, utc)},
		{"day", PeriodDay, 2024, 3, time.Date(2024, 3, 1, 0, 0, 0, 0, utc), time.Date(2024, 3, 1, 23, 59, 59, 0, utc)},
		{"day without month", PeriodDay, 2024, 0, time.Date(2024, 1, 1, 0, 0, 0, 0, utc), time.Date(2024, 1, 1, 23, 59, 59, 0, utc)},
		{"week", PeriodWeek, 2024, 12, time.Date(2024, 12, 1, 0, 0, 0, 0, utc), time.Date(2024, 12, 8, 0, 0, 0, 0, utc)},
		{"year", PeriodYear, 2024, 6, time.Date(2024, 1, 1, 0, 0, 0, 0, utc), time.Date(2024, 12, 31, 23, 59, 59, 0, utc)},
		{"unknown", Period("quarter"), 2024, 6, time.Date(2024, 1, 1, 0, 0, 0, 0, utc), time.Date(2024, 12, 31, 23, 59, 59, 0, utc)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RangeFor(tc.period, tc.year, tc.month, utc)
			if err != nil {
				t.Fatalf("range: %v", err)
			}
			if !got.Start.Equal(tc.start) || !got.End.Equal(tc.end) {
				t.Fatalf("expected %s..%s, got %s..%s", tc.start, tc.end, got.Start, got.End)
			}
		})
	}
}

func TestRangeForInvalidMonth(t *testing.T) {
	for _, month := range []int{-1, 13} {
		if _, err := RangeFor(PeriodMonth, 2024, month, time.UTC); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("month %d: expected ErrInvalidMonth, got %v", month, err)
		}
	}
}

func TestRangeForUsesLocation(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	got, err := RangeFor(PeriodDay, 2024, 5, loc)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if got.Start.UTC() != time.Date(2024, 4, 30, 23, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected start %s", got.Start.UTC())
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("")
	if err != nil || p != PeriodMonth {
		t.Fatalf("expected default month, got %q %v", p, err)
	}
	if _, err := ParsePeriod("quarter"); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}
