// Package pipeline turns raw PDF tables into one normalized traceability dataset.
//
// Every variant of the extraction (header row choice, column layout, weight
// locale, folio source, banner filtering) is a field of Options; a single
// Pipeline runs them all.
package pipeline

import "github.com/hyperjump/trazabilidad/internal/config"

// HeaderMode selects how the header row of a page table is found.
type HeaderMode string

const (
	// HeaderFixed ignores the detected header and assigns the canonical names by position.
	HeaderFixed HeaderMode = "fixed"
	// HeaderRow0 uses row 0 as the header.
	HeaderRow0 HeaderMode = "row0"
	// HeaderRow1 discards rows 0 and 1 and uses row 1's text as the header.
	HeaderRow1 HeaderMode = "row1"
)

// WeightMode selects how quantity/weight strings are converted to numbers.
type WeightMode string

const (
	// WeightComma replaces every comma with a period before parsing.
	WeightComma WeightMode = "comma"
	// WeightDotComma reads "." as a thousands separator when a decimal comma is present.
	WeightDotComma WeightMode = "dot_comma"
)

// FolioSource selects what goes in the Folio column.
type FolioSource string

const (
	// FolioSegment parses the second underscore-delimited segment of the file name as a number.
	FolioSegment FolioSource = "segment"
	// FolioFilename uses the whole file name.
	FolioFilename FolioSource = "filename"
)

// Position places the Archivo column.
type Position string

const (
	// PositionStart puts the column right after Folio.
	PositionStart Position = "start"
	// PositionEnd appends the column after the last one.
	PositionEnd Position = "end"
)

// Options configures one pipeline variant.
type Options struct {
	HeaderMode        HeaderMode
	DropFirstRow      bool
	WeightMode        WeightMode
	FolioSource       FolioSource
	BannerFilter      bool
	ArchivoFirstPage  Position
	ArchivoOtherPages Position
}

// DefaultOptions returns the variant of the reference traceability form:
// fixed canonical names, row 0 dropped, banner filter on.
func DefaultOptions() Options {
	return Options{
		HeaderMode:        HeaderFixed,
		DropFirstRow:      true,
		WeightMode:        WeightDotComma,
		FolioSource:       FolioSegment,
		BannerFilter:      true,
		ArchivoFirstPage:  PositionEnd,
		ArchivoOtherPages: PositionStart,
	}
}

// OptionsFromConfig converts the pipeline section of the config file.
func OptionsFromConfig(cfg *config.PipelineConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.HeaderMode != "" {
		opts.HeaderMode = HeaderMode(cfg.HeaderMode)
	}
	if cfg.WeightMode != "" {
		opts.WeightMode = WeightMode(cfg.WeightMode)
	}
	if cfg.FolioSource != "" {
		opts.FolioSource = FolioSource(cfg.FolioSource)
	}
	if cfg.ArchivoPositionFirstPage != "" {
		opts.ArchivoFirstPage = Position(cfg.ArchivoPositionFirstPage)
	}
	if cfg.ArchivoPositionOtherPages != "" {
		opts.ArchivoOtherPages = Position(cfg.ArchivoPositionOtherPages)
	}
	opts.DropFirstRow = cfg.DropFirstRowOrDefault()
	opts.BannerFilter = cfg.BannerFilterOrDefault()
	return opts
}

func (o Options) archivoPosition(layout Layout) Position {
	if layout == LayoutFirstPage {
		return o.ArchivoFirstPage
	}
	return o.ArchivoOtherPages
}
