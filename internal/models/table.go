package models

// RawTable is one table as detected on a PDF page: rows of optional cell strings.
// Rows may have different lengths.
type RawTable [][]Cell

// Width returns the length of the longest row.
func (t RawTable) Width() int {
	w := 0
	for _, row := range t {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// RawRow builds a raw row from strings; empty strings become null cells.
func RawRow(values ...string) []Cell {
	row := make([]Cell, len(values))
	for i, v := range values {
		if v == "" {
			row[i] = Null()
			continue
		}
		row[i] = Text(v)
	}
	return row
}
