package pipeline

import (
	"fmt"

	"github.com/hyperjump/trazabilidad/internal/models"
)

// ResolveHeader splits a page table into header names and body rows according
// to the header mode. page is 1-based. ok is false when the table has fewer
// than two rows; such a page contributes no records.
func ResolveHeader(table models.RawTable, page int, opts Options) (header []string, body models.RawTable, ok bool) {
	if len(table) < 2 {
		return nil, nil, false
	}
	switch opts.HeaderMode {
	case HeaderRow0:
		return headerText(table[0]), table[1:], true
	case HeaderRow1:
		return headerText(table[1]), table[2:], true
	default:
		body = table
		if opts.DropFirstRow {
			body = table[1:]
		}
		return LayoutForPage(page).Columns(), body, true
	}
}

// headerText turns a detected header row into column names. Empty cells are
// named "Unnamed: <index>".
func headerText(row []models.Cell) []string {
	names := make([]string, len(row))
	for i, c := range row {
		name := CleanText(c.String())
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
	}
	return names
}
