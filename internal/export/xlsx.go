// Package export writes normalized datasets as xlsx workbooks.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/trazabilidad/internal/config"
	"github.com/hyperjump/trazabilidad/internal/models"
)

// Mode controls how cell values are written.
type Mode string

const (
	// ModeText writes every non-null value as a string.
	ModeText Mode = "text"
	// ModeTyped writes numeric cells as numbers and the rest as strings.
	ModeTyped Mode = "typed"
)

// ContentType is the media type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultSheet = "Sheet1"

// Options configures the workbook layout.
type Options struct {
	Mode      Mode
	SheetName string
}

// DefaultOptions returns typed output on a sheet named Sheet1.
func DefaultOptions() Options {
	return Options{Mode: ModeTyped, SheetName: defaultSheet}
}

// OptionsFromConfig converts the export section of the config file.
func OptionsFromConfig(cfg *config.ExportConfig) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.OutputMode != "" {
		opts.Mode = Mode(cfg.OutputMode)
	}
	if cfg.SheetName != "" {
		opts.SheetName = cfg.SheetName
	}
	return opts
}

// Write encodes ds as an xlsx workbook to w: one header row holding the
// column names followed by one row per record, in dataset order.
func Write(w io.Writer, ds *models.Dataset, opts Options) error {
	f, err := build(ds, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the workbook to path, replacing any existing file.
func WriteFile(path string, ds *models.Dataset, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := build(ds, opts)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func build(ds *models.Dataset, opts Options) (*excelize.File, error) {
	if ds == nil {
		return nil, errors.New("nil dataset")
	}
	sheet := opts.SheetName
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	header := make([]interface{}, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	if len(ds.Columns) > 0 {
		if err := styleHeader(f, sheet, len(ds.Columns)); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, row := range ds.Rows {
		values := make([]interface{}, len(row))
		for j, c := range row {
			values[j] = cellValue(c, opts.Mode)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

func styleHeader(f *excelize.File, sheet string, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(cols, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func cellValue(c models.Cell, mode Mode) interface{} {
	switch c.Kind {
	case models.KindNull:
		return nil
	case models.KindNumber:
		if mode == ModeText {
			return c.String()
		}
		return c.Number
	default:
		return c.Text
	}
}

// Read decodes the first sheet of an xlsx workbook written by Write. The first
// row is taken as the column names; empty cells become null and numeric cells
// become numbers.
func Read(r io.Reader) (*models.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return models.NewDataset(nil), nil
	}

	ds := models.NewDataset(rows[0])
	for i, row := range rows[1:] {
		cells := make([]models.Cell, len(row))
		for j, v := range row {
			if v == "" {
				continue
			}
			cells[j], err = readCell(f, sheet, j+1, i+2, v)
			if err != nil {
				return nil, err
			}
		}
		ds.AddRow(cells)
	}
	return ds, nil
}

func readCell(f *excelize.File, sheet string, col, row int, formatted string) (models.Cell, error) {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return models.Cell{}, err
	}
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return models.Cell{}, fmt.Errorf("cell %s: %w", name, err)
	}
	if typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber {
		return models.Text(formatted), nil
	}
	raw, err := f.GetCellValue(sheet, name, excelize.Options{RawCellValue: true})
	if err != nil {
		return models.Cell{}, fmt.Errorf("cell %s: %w", name, err)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.Text(formatted), nil
	}
	return models.Number(n), nil
}
