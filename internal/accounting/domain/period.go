package accounting

import (
	"fmt"
	"time"
)

// Period selects the width of a summary window.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod validates a period string. Empty means month.
func ParsePeriod(value string) (Period, error) {
	switch Period(value) {
	case "":
		return PeriodMonth, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return Period(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, value)
	}
}

// DateRange is an inclusive [Start, End] window.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// RangeFor resolves the window for a period anchored at year/month in loc.
// month is 0 when absent, which anchors on January. Unknown periods cover the
// whole year.
func RangeFor(period Period, year, month int, loc *time.Location) (DateRange, error) {
	if month < 0 || month > 12 {
		return DateRange{}, fmt.Errorf("%w: %d", ErrInvalidMonth, month)
	}
	if loc == nil {
		loc = time.UTC
	}
	anchor := time.Month(month)
	if month == 0 {
		anchor = time.January
	}
	start := time.Date(year, anchor, 1, 0, 0, 0, 0, loc)
	yearEnd := time.Date(year, time.December, 31, 23, 59, 59, 0, loc)

	switch period {
	case PeriodDay:
		return DateRange{Start: start, End: endOfDay(start)}, nil
	case PeriodWeek:
		return DateRange{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case PeriodMonth:
		if month == 0 {
			return DateRange{Start: start, End: yearEnd}, nil
		}
		last := start.AddDate(0, 1, -1)
		return DateRange{Start: start, End: endOfDay(last)}, nil
	default:
		return DateRange{
			Start: time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
			End:   yearEnd,
		}, nil
	}
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
