package models

// Dataset is a flat table with named columns. Every row has exactly len(Columns) cells.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    [][]Cell `json:"rows"`
}

// NewDataset returns an empty dataset with the given columns.
func NewDataset(columns []string) *Dataset {
	return &Dataset{Columns: append([]string(nil), columns...)}
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// AddRow appends a row, padding with nulls or truncating it to the column count.
func (d *Dataset) AddRow(cells []Cell) {
	row := make([]Cell, len(d.Columns))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		} else {
			row[i] = Null()
		}
	}
	d.Rows = append(d.Rows, row)
}

// ColumnIndex returns the index of the first column called name, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// InsertColumn inserts a column at pos (clamped to the valid range) with value in every row.
func (d *Dataset) InsertColumn(pos int, name string, value Cell) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(d.Columns) {
		pos = len(d.Columns)
	}
	d.Columns = append(d.Columns[:pos], append([]string{name}, d.Columns[pos:]...)...)
	for i, row := range d.Rows {
		d.Rows[i] = append(row[:pos], append([]Cell{value}, row[pos:]...)...)
	}
}

// DropColumns removes every column called name.
func (d *Dataset) DropColumns(name string) {
	keep := make([]int, 0, len(d.Columns))
	for i, c := range d.Columns {
		if c != name {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(d.Columns) {
		return
	}
	cols := make([]string, len(keep))
	for j, i := range keep {
		cols[j] = d.Columns[i]
	}
	d.Columns = cols
	for r, row := range d.Rows {
		out := make([]Cell, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		d.Rows[r] = out
	}
}

// Append concatenates other below d. Columns are matched by name (the k-th
// occurrence of a name matches the k-th occurrence in d); columns unknown to d
// are added at the end and back-filled with nulls.
func (d *Dataset) Append(other *Dataset) {
	if other == nil {
		return
	}
	mapping := make([]int, len(other.Columns))
	seen := make(map[string]int)
	for j, name := range other.Columns {
		occurrence := seen[name]
		seen[name]++
		idx := d.nthColumn(name, occurrence)
		if idx < 0 {
			d.Columns = append(d.Columns, name)
			for r := range d.Rows {
				d.Rows[r] = append(d.Rows[r], Null())
			}
			idx = len(d.Columns) - 1
		}
		mapping[j] = idx
	}
	for _, src := range other.Rows {
		row := make([]Cell, len(d.Columns))
		for i := range row {
			row[i] = Null()
		}
		for j, idx := range mapping {
			if j < len(src) {
				row[idx] = src[j]
			}
		}
		d.Rows = append(d.Rows, row)
	}
}

func (d *Dataset) nthColumn(name string, n int) int {
	for i, c := range d.Columns {
		if c != name {
			continue
		}
		if n == 0 {
			return i
		}
		n--
	}
	return -1
}

// Filter keeps only the rows for which keep returns true. i is the row's
// position before filtering.
func (d *Dataset) Filter(keep func(i int, row []Cell) bool) int {
	out := d.Rows[:0]
	removed := 0
	for i, row := range d.Rows {
		if keep(i, row) {
			out = append(out, row)
			continue
		}
		removed++
	}
	d.Rows = out
	return removed
}

// Head returns a copy holding at most the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > len(d.Rows) || n < 0 {
		n = len(d.Rows)
	}
	head := NewDataset(d.Columns)
	for _, row := range d.Rows[:n] {
		head.Rows = append(head.Rows, append([]Cell(nil), row...))
	}
	return head
}
