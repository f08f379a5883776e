package pipeline

import (
	"errors"
	"fmt"

	"github.com/hyperjump/trazabilidad/internal/models"
	"github.com/hyperjump/trazabilidad/internal/tables"
)

// fakeDoc serves prepared tables per page.
type fakeDoc struct {
	pages   [][]models.RawTable
	errPage int
}

func (d *fakeDoc) NumPages() int { return len(d.pages) }

func (d *fakeDoc) Tables(page int) ([]models.RawTable, error) {
	if page == d.errPage {
		return nil, errors.New("broken content stream")
	}
	return d.pages[page-1], nil
}

// fakeOpener maps source names to documents; unknown names fail to open.
func fakeOpener(docs map[string]tables.Document) OpenFunc {
	return func(src Source) (tables.Document, error) {
		doc, ok := docs[src.Name]
		if !ok {
			return nil, fmt.Errorf("not a PDF: %s", src.Name)
		}
		return doc, nil
	}
}

// formRow builds one raw row of the traceability form for the given layout.
func formRow(layout Layout, estado, lote, cantidad string) []models.Cell {
	values := []string{
		estado, "Salmón Atlántico", "101", "01-02-2024", lote, cantidad,
		"10,5", "5%", "x", "76.123.456-7", "Planta", "Proc SA", "Calle 1 #23",
		"Guía de despacho",
	}
	if layout == LayoutFirstPage {
		values = append(values, "x", "5001", "03-02-2024", "", "")
	} else {
		values = append(values, "5001", "03-02-2024", "", "")
	}
	return models.RawRow(values...)
}

func headerRow(layout Layout) []models.Cell {
	return models.RawRow(layout.Columns()...)
}

// formTable returns a header row followed by one data row per lote.
func formTable(layout Layout, lotes ...string) models.RawTable {
	tbl := models.RawTable{headerRow(layout)}
	for _, l := range lotes {
		tbl = append(tbl, formRow(layout, "Aprobado", l, "12,50"))
	}
	return tbl
}

func column(ds *models.Dataset, name string) []string {
	idx := ds.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]string, len(ds.Rows))
	for i, row := range ds.Rows {
		out[i] = row[idx].String()
	}
	return out
}
