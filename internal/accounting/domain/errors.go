package accounting

import "errors"

var (
	// ErrInvalidPeriod is returned for an unknown reporting period.
	ErrInvalidPeriod = errors.New("accounting: invalid period")
	// ErrInvalidYear is returned for a year outside the accepted window.
	ErrInvalidYear = errors.New("accounting: invalid year")
	// ErrInvalidMonth is returned for a month outside 1..12.
	ErrInvalidMonth = errors.New("accounting: invalid month")
	// ErrInvalidExportType is returned for an unknown export type.
	ErrInvalidExportType = errors.New("accounting: invalid export type")
	// ErrInvalidFormat is returned for an unknown document format.
	ErrInvalidFormat = errors.New("accounting: invalid format")
	// ErrInvalidDateRange is returned when dateTo precedes dateFrom or a bound is missing.
	ErrInvalidDateRange = errors.New("accounting: invalid date range")
	// ErrExportNotFound is returned when no export job has the requested id.
	ErrExportNotFound = errors.New("accounting: export not found")
	// ErrExportNotReady is returned when the job exists but has no artifact yet.
	ErrExportNotReady = errors.New("accounting: export file not available yet")
	// ErrInvalidTransition is returned when a job leaves a terminal status.
	ErrInvalidTransition = errors.New("accounting: invalid status transition")
	// ErrNoRows is returned by tabular renderers for an empty dataset.
	ErrNoRows = errors.New("no data to export")
	// ErrNilJob is returned when saving a nil job.
	ErrNilJob = errors.New("accounting: nil job")
)

// IsValidation reports whether err is a caller input error.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidPeriod),
		errors.Is(err, ErrInvalidYear),
		errors.Is(err, ErrInvalidMonth),
		errors.Is(err, ErrInvalidExportType),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidDateRange):
		return true
	}
	return false
}
