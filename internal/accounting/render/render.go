// Package render encodes export datasets as CSV, XLSX or PDF documents.
package render

import (
	"fmt"
	"time"

	accounting "oliver-admin/internal/accounting/domain"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	defaultBrand      = "Oliver"
	defaultPDFMaxRows = 50
)

// Document is an encoded export.
type Document struct {
	Body        []byte
	ContentType string
}

// Options tunes document layout.
type Options struct {
	// Brand prefixes the PDF title and footer.
	Brand string
	// PDFMaxRows caps the detail table of a PDF.
	PDFMaxRows int
	// Now stamps the generation date. Defaults to time.Now.
	Now func() time.Time
	// Location is used for the generation date.
	Location *time.Location
}

// Renderer dispatches a dataset to the encoder for a format.
type Renderer struct {
	opts Options
}

// NewRenderer constructs a renderer, filling option defaults.
func NewRenderer(opts Options) *Renderer {
	if opts.Brand == "" {
		opts.Brand = defaultBrand
	}
	if opts.PDFMaxRows <= 0 {
		opts.PDFMaxRows = defaultPDFMaxRows
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Renderer{opts: opts}
}

// Render encodes data in format. CSV and XLSX reject empty datasets with
// accounting.ErrNoRows; PDF accepts them.
func (r *Renderer) Render(format accounting.Format, exportType accounting.ExportType, data accounting.Dataset) (Document, error) {
	switch format {
	case accounting.FormatCSV:
		body, err := BuildCSV(data.Rows)
		if err != nil {
			return Document{}, err
		}
		return Document{Body: body, ContentType: ContentTypeCSV}, nil
	case accounting.FormatXLSX:
		body, err := BuildXLSX(data.Rows)
		if err != nil {
			return Document{}, err
		}
		return Document{Body: body, ContentType: ContentTypeXLSX}, nil
	case accounting.FormatPDF:
		body, err := r.BuildPDF(exportType, data)
		if err != nil {
			return Document{}, err
		}
		return Document{Body: body, ContentType: ContentTypePDF}, nil
	default:
		return Document{}, fmt.Errorf("%w: %q", accounting.ErrInvalidFormat, format)
	}
}
