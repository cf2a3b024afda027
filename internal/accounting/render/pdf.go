package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	accounting "oliver-admin/internal/accounting/domain"
)

const (
	pdfMargin     = 50.0
	pdfTableWidth = 500.0
	pdfBreakY     = 700.0
	pdfFooterY    = 750.0
	pdfRowHeight  = 16.0
	pdfFont       = "Helvetica"
)

// BuildPDF renders a titled report with an optional summary block and a
// detail table capped at PDFMaxRows.
func (r *Renderer) BuildPDF(exportType accounting.ExportType, data accounting.Dataset) ([]byte, error) {
	pdf := r.layoutPDF(exportType, data)
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) layoutPDF(exportType accounting.ExportType, data accounting.Dataset) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pdfMargin

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 24)
	pdf.CellFormat(contentWidth, 30, tr(r.opts.Brand+" Platform"), "", 1, "C", false, 0, "")
	pdf.SetFont(pdfFont, "", 16)
	pdf.CellFormat(contentWidth, 22, strings.ToUpper(string(exportType))+" Report", "", 1, "C", false, 0, "")
	pdf.SetFont(pdfFont, "", 10)
	generated := r.opts.Now().In(r.opts.Location).Format("January 2, 2006 at 3:04 PM")
	pdf.CellFormat(contentWidth, 14, "Generated: "+generated, "", 1, "C", false, 0, "")
	pdf.Ln(8)
	y := pdf.GetY()
	pdf.Line(pdfMargin, y, pageWidth-pdfMargin, y)
	pdf.Ln(16)

	if len(data.Summary) > 0 {
		pdf.SetFont(pdfFont, "B", 14)
		pdf.CellFormat(contentWidth, 20, "Financial Summary", "", 1, "L", false, 0, "")
		pdf.SetFont(pdfFont, "", 11)
		for _, f := range data.Summary {
			line := fmt.Sprintf("%s: %s", Humanize(f.Key), pdfValue(f))
			pdf.CellFormat(contentWidth, pdfRowHeight, tr(line), "", 1, "L", false, 0, "")
		}
		pdf.Ln(12)
	}

	if len(data.Rows) > 0 {
		r.layoutTable(pdf, tr, contentWidth, data.Rows)
	}

	stampFooters(pdf, tr, contentWidth, r.opts.Brand)
	return pdf
}

func (r *Renderer) layoutTable(pdf *gofpdf.Fpdf, tr func(string) string, contentWidth float64, rows []accounting.Row) {
	pdf.SetFont(pdfFont, "B", 14)
	pdf.CellFormat(contentWidth, 20, "Detailed Records", "", 1, "L", false, 0, "")

	headers := accounting.Headers(rows[0])
	colWidth := pdfTableWidth / float64(len(headers))

	pdf.SetFont(pdfFont, "B", 8)
	for _, h := range headers {
		pdf.CellFormat(colWidth, pdfRowHeight, fitText(pdf, Humanize(h), colWidth), "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(pdfFont, "", 8)
	shown := rows
	if len(shown) > r.opts.PDFMaxRows {
		shown = shown[:r.opts.PDFMaxRows]
	}
	for _, row := range shown {
		if pdf.GetY() > pdfBreakY {
			pdf.AddPage()
		}
		for _, f := range accounting.Fields(row) {
			pdf.CellFormat(colWidth, pdfRowHeight, tr(fitText(pdf, pdfValue(f), colWidth)), "", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(rows) > r.opts.PDFMaxRows {
		if pdf.GetY() > pdfBreakY {
			pdf.AddPage()
		}
		pdf.Ln(8)
		pdf.SetFont(pdfFont, "I", 9)
		note := fmt.Sprintf("Note: Only first %d records shown. Total records: %d", r.opts.PDFMaxRows, len(rows))
		pdf.CellFormat(contentWidth, pdfRowHeight, note, "", 1, "L", false, 0, "")
	}
}

// stampFooters runs after layout so the total page count is known.
func stampFooters(pdf *gofpdf.Fpdf, tr func(string) string, contentWidth float64, brand string) {
	total := pdf.PageCount()
	pdf.SetFont(pdfFont, "", 8)
	pdf.SetTextColor(128, 128, 128)
	for i := 1; i <= total; i++ {
		pdf.SetPage(i)
		// SetFont is a no-op when the font is unchanged, so force the
		// selection into this page's stream.
		pdf.SetFontSize(8)
		pdf.SetXY(pdfMargin, pdfFooterY)
		footer := fmt.Sprintf("Page %d of %d | Generated by %s Admin Panel", i, total, brand)
		pdf.CellFormat(contentWidth, 10, tr(footer), "", 0, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

func pdfValue(f accounting.Field) string {
	if f.Kind == accounting.KindMoney {
		return euroSign + FormatEuros(f.Cents)
	}
	if f.Text == "" {
		return "-"
	}
	return f.Text
}

// fitText trims s so it fits a cell of width w, marking the cut with "..".
func fitText(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 4
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"..") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}
