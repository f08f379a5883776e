package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hyperjump/trazabilidad/internal/models"
	"github.com/hyperjump/trazabilidad/internal/tables"
)

// ErrNothingToExport is returned when no input file produced a single record.
var ErrNothingToExport = errors.New("nothing to export")

// Source is one uploaded PDF: the name it was uploaded with and where its bytes live.
type Source struct {
	Name string
	Path string
}

// OpenFunc opens a source as a table document.
type OpenFunc func(src Source) (tables.Document, error)

// OpenPDF returns an OpenFunc reading sources from disk with ledongthuc/pdf.
func OpenPDF(opts tables.Options) OpenFunc {
	return func(src Source) (tables.Document, error) {
		doc, err := tables.OpenFile(src.Path, opts)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// Warning is a recoverable problem met while processing a file.
type Warning struct {
	File    string `json:"file"`
	Page    int    `json:"page,omitempty"`
	Message string `json:"message"`
}

// Report summarizes one run.
type Report struct {
	Files       int       `json:"files"`
	FailedFiles int       `json:"failed_files"`
	Pages       int       `json:"pages"`
	Rows        int       `json:"rows"`
	Filtered    int       `json:"filtered"`
	Warnings    []Warning `json:"warnings,omitempty"`
}

func (r *Report) warn(file string, page int, msg string) {
	r.Warnings = append(r.Warnings, Warning{File: file, Page: page, Message: msg})
}

// Pipeline extracts and normalizes traceability tables from PDFs.
type Pipeline struct {
	opts   Options
	open   OpenFunc
	logger *zap.Logger
}

// New returns a pipeline. A nil logger disables logging.
func New(opts Options, open OpenFunc, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{opts: opts, open: open, logger: logger}
}

// Run processes the sources in order and returns the concatenated dataset
// (file order, then page order, then row order). A file that cannot be opened
// contributes nothing and is reported as a warning. ErrNothingToExport is
// returned when no record survives.
func (p *Pipeline) Run(ctx context.Context, sources []Source) (*models.Dataset, *Report, error) {
	report := &Report{}
	all := models.NewDataset(nil)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		report.Files++
		ds, err := p.ProcessDocument(ctx, src, report)
		if err != nil {
			if ctx.Err() != nil {
				return nil, report, ctx.Err()
			}
			report.FailedFiles++
			report.warn(src.Name, 0, err.Error())
			p.logger.Warn("file skipped", zap.String("file", src.Name), zap.Error(err))
			continue
		}
		all.Append(ds)
	}
	if p.opts.BannerFilter {
		report.Filtered = FilterBanners(all)
	}
	report.Rows = all.Len()
	p.logger.Info("extraction finished",
		zap.Int("files", report.Files),
		zap.Int("failed_files", report.FailedFiles),
		zap.Int("pages", report.Pages),
		zap.Int("rows", report.Rows),
		zap.Int("filtered", report.Filtered),
	)
	if all.Len() == 0 {
		return nil, report, ErrNothingToExport
	}
	return all, report, nil
}

// ProcessDocument extracts every page of one source: page 1 under the
// first-page layout, the rest under the other-page layout. Only an unreadable
// document is an error; page problems are recorded in report.
func (p *Pipeline) ProcessDocument(ctx context.Context, src Source, report *Report) (*models.Dataset, error) {
	if report == nil {
		report = &Report{}
	}
	doc, err := p.open(src)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", src.Name, err)
	}
	prov := Provenance{
		Folio:   FolioFromFilename(src.Name, p.opts.FolioSource),
		Archivo: filepath.Base(src.Name),
	}
	if prov.Folio.IsNull() {
		p.logger.Debug("folio unresolvable", zap.String("file", src.Name))
	}

	out := models.NewDataset(nil)
	pages := doc.NumPages()
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Pages++
		ds, warning, err := p.processPage(doc, page, prov)
		if err != nil {
			report.warn(src.Name, page, err.Error())
			p.logger.Warn("page skipped", zap.String("file", src.Name), zap.Int("page", page), zap.Error(err))
			continue
		}
		if warning != "" {
			report.warn(src.Name, page, warning)
			p.logger.Warn("column count mismatch", zap.String("file", src.Name), zap.Int("page", page), zap.String("detail", warning))
		}
		if ds == nil {
			p.logger.Debug("page has no table", zap.String("file", src.Name), zap.Int("page", page))
			continue
		}
		p.logger.Debug("page extracted", zap.String("file", src.Name), zap.Int("page", page), zap.Int("rows", ds.Len()))
		out.Append(ds)
	}
	return out, nil
}

func (p *Pipeline) processPage(doc tables.Document, page int, prov Provenance) (*models.Dataset, string, error) {
	detected, err := doc.Tables(page)
	if err != nil {
		return nil, "", err
	}
	table := concatTables(detected)
	header, body, ok := ResolveHeader(table, page, p.opts)
	if !ok || len(body) == 0 {
		return nil, "", nil
	}
	layout := LayoutForPage(page)
	ds, warning := MapSchema(header, body, layout, prov, p.opts)
	Normalize(ds, p.opts.WeightMode)
	return ds, warning, nil
}

// concatTables stacks the tables of a page that have more than one column.
func concatTables(detected []models.RawTable) models.RawTable {
	var out models.RawTable
	for _, t := range detected {
		if t.Width() > 1 {
			out = append(out, t...)
		}
	}
	return out
}
