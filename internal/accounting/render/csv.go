package render

import (
	"bytes"
	"encoding/csv"

	accounting "oliver-admin/internal/accounting/domain"
)

// BuildCSV writes a header from the first row's keys followed by one line per row.
func BuildCSV(rows []accounting.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, accounting.ErrNoRows
	}
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(accounting.Headers(rows[0])); err != nil {
		return nil, err
	}
	for _, row := range rows {
		fields := accounting.Fields(row)
		record := make([]string, len(fields))
		for i, f := range fields {
			record[i] = cellText(f)
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
