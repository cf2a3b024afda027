package application

import (
	"errors"
	"fmt"
	"strings"
	"time"

	accounting "oliver-admin/internal/accounting/domain"
)

const dateOnly = "2006-01-02"

// ParseExportRequest validates a submission. Dates are YYYY-MM-DD or RFC 3339;
// a date-only dateTo covers the whole day.
func ParseExportRequest(filters accounting.ExportFilters, loc *time.Location) (accounting.ExportRequest, error) {
	if loc == nil {
		loc = time.UTC
	}
	exportType, err := accounting.ParseExportType(filters.Type)
	if err != nil {
		return accounting.ExportRequest{}, err
	}
	format, err := accounting.ParseFormat(filters.Format)
	if err != nil {
		return accounting.ExportRequest{}, err
	}
	from, _, err := parseBound(filters.DateFrom, loc)
	if err != nil {
		return accounting.ExportRequest{}, fmt.Errorf("%w: dateFrom: %v", accounting.ErrInvalidDateRange, err)
	}
	to, dateOnlyTo, err := parseBound(filters.DateTo, loc)
	if err != nil {
		return accounting.ExportRequest{}, fmt.Errorf("%w: dateTo: %v", accounting.ErrInvalidDateRange, err)
	}
	if dateOnlyTo {
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		return accounting.ExportRequest{}, fmt.Errorf("%w: dateTo before dateFrom", accounting.ErrInvalidDateRange)
	}
	return accounting.ExportRequest{
		Type:    exportType,
		Format:  format,
		Range:   accounting.DateRange{Start: from, End: to},
		Filters: filters,
	}, nil
}

func parseBound(value string, loc *time.Location) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, errors.New("required")
	}
	if t, err := time.ParseInLocation(dateOnly, value, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("unparseable %q", value)
	}
	return t, false, nil
}
