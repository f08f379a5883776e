// Package tables reads raw tables (rows of cell strings) from PDF pages.
package tables

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/trazabilidad/internal/config"
	"github.com/hyperjump/trazabilidad/internal/models"
)

// Document is an opened PDF whose pages can be read as raw tables.
type Document interface {
	// NumPages returns the number of pages.
	NumPages() int
	// Tables returns the tables detected on a 1-based page; a page without
	// tables returns an empty slice.
	Tables(page int) ([]models.RawTable, error)
}

// Options tunes validation and table detection.
type Options struct {
	// Validate checks the PDF structure with pdfcpu before reading it.
	Validate bool
	// RowTolerance is the maximum Y distance (points) between text runs of one row.
	RowTolerance float64
	// ColumnGap is the minimum horizontal gap (points) that separates two cells.
	ColumnGap float64
	// Stream reads unruled pages by text alignment; otherwise only ruled grids
	// are tables.
	Stream bool
}

// DefaultOptions returns the detection settings used for the traceability forms.
func DefaultOptions() Options {
	return Options{Validate: true, RowTolerance: 2.0, ColumnGap: 8.0}
}

// OptionsFromConfig converts the pdf section of the config file.
func OptionsFromConfig(cfg *config.PDFConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	opts.Validate = cfg.ValidateOrDefault()
	if cfg.RowTolerance > 0 {
		opts.RowTolerance = cfg.RowTolerance
	}
	if cfg.ColumnGap > 0 {
		opts.ColumnGap = cfg.ColumnGap
	}
	opts.Stream = cfg.Stream
	return opts
}

// PDFDocument is a Document backed by ledongthuc/pdf.
type PDFDocument struct {
	reader *pdf.Reader
	opts   Options
}

// OpenFile reads the PDF at path.
func OpenFile(path string, opts Options) (*PDFDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Open(content, opts)
}

// Open parses PDF bytes. Malformed input returns an error, including when the
// parser panics.
func Open(content []byte, opts Options) (doc *PDFDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("open PDF: parser panic: %v", r)
		}
	}()
	if opts.Validate {
		if _, err := Validate(content); err != nil {
			return nil, err
		}
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return &PDFDocument{reader: r, opts: opts}, nil
}

// NumPages returns the number of pages.
func (d *PDFDocument) NumPages() int {
	return d.reader.NumPage()
}

// Tables detects the tables of a 1-based page.
func (d *PDFDocument) Tables(page int) (tables []models.RawTable, err error) {
	if page < 1 || page > d.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, d.reader.NumPage())
	}
	defer func() {
		if r := recover(); r != nil {
			tables = nil
			err = fmt.Errorf("extract page %d: parser panic: %v", page, r)
		}
	}()
	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}
	content := p.Content()
	return Detect(content.Text, content.Rect, d.opts), nil
}
