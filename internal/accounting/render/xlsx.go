package render

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	accounting "oliver-admin/internal/accounting/domain"
)

const (
	xlsxSheet       = "Data"
	xlsxHeaderColor = "00B8A9"
	xlsxMoneyFormat = `€#,##0.00`
)

// BuildXLSX renders rows into a single "Data" sheet with a styled header.
func BuildXLSX(rows []accounting.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, accounting.ErrNoRows
	}
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{xlsxHeaderColor}},
	})
	if err != nil {
		return nil, err
	}
	moneyFormat := xlsxMoneyFormat
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFormat})
	if err != nil {
		return nil, err
	}

	headers := accounting.Headers(rows[0])
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(xlsxSheet, cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(xlsxSheet, first, last, headerStyle); err != nil {
		return nil, err
	}

	for i, row := range rows {
		for col, field := range accounting.Fields(row) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if field.Kind == accounting.KindMoney {
				_ = f.SetCellValue(xlsxSheet, cell, moneyValue(field.Cents))
				_ = f.SetCellStyle(xlsxSheet, cell, cell, moneyStyle)
				continue
			}
			_ = f.SetCellValue(xlsxSheet, cell, field.Text)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func moneyValue(cents int64) float64 {
	value, _ := decimalEuros(cents).Float64()
	return value
}
