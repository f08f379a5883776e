package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	tabula "github.com/tsawler/tabula/tables"

	"github.com/hyperjump/trazabilidad/internal/models"
)

// defaultFontSize is the fragment height used when a run carries no font size.
const defaultFontSize = 10.0

// Detect finds the tables of one page. Ruled grids (lattice) are read from the
// page's rectangles with tabula's grid detector; every text fragment is placed
// in the grid cell holding its center, so text wrapped inside a cell stays one
// cell. When no grid is found and opts.Stream is set, tabula's geometric
// detector builds the table from text alignment alone.
func Detect(texts []pdf.Text, rects []pdf.Rect, opts Options) []models.RawTable {
	frags := Fragments(texts, opts)
	if len(frags) == 0 {
		return nil
	}

	horizontals, verticals := rulings(rects, opts)
	gd := tabula.NewGridDetector()
	gd.AlignmentTolerance = math.Max(gd.AlignmentTolerance, opts.RowTolerance)

	var out []models.RawTable
	for _, h := range gd.DetectFromLines(horizontals, verticals) {
		if h.Rows < 1 || h.Cols < 1 {
			continue
		}
		if tbl := fillGrid(h.ToTableGrid(), frags); len(tbl) > 0 {
			out = append(out, tbl)
		}
	}
	if len(out) > 0 || !opts.Stream {
		return out
	}
	return detectStream(frags, opts)
}

// Fragments joins the glyph runs of a page into word-level text fragments,
// ordered top to bottom, then left to right. Runs on one baseline (within
// RowTolerance) closer than ColumnGap belong to the same fragment.
func Fragments(texts []pdf.Text, opts Options) []model.TextFragment {
	runs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			runs = append(runs, t)
		}
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].Y > runs[j].Y })

	var lines [][]pdf.Text
	var lineY float64
	for _, t := range runs {
		n := len(lines)
		if n > 0 && math.Abs(lineY-t.Y) <= opts.RowTolerance {
			lines[n-1] = append(lines[n-1], t)
			continue
		}
		lines = append(lines, []pdf.Text{t})
		lineY = t.Y
	}

	var frags []model.TextFragment
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].X < line[j].X })
		frags = append(frags, joinRuns(line, opts)...)
	}
	return frags
}

func joinRuns(runs []pdf.Text, opts Options) []model.TextFragment {
	var frags []model.TextFragment
	var text strings.Builder
	var x0, x1, y, size float64
	flush := func() {
		if s := strings.TrimSpace(text.String()); s != "" {
			frags = append(frags, model.TextFragment{
				Text:     s,
				BBox:     model.NewBBox(x0, y, x1-x0, size),
				FontSize: size,
			})
		}
		text.Reset()
	}
	for i, t := range runs {
		if i > 0 {
			gap := t.X - x1
			if gap < opts.ColumnGap {
				if gap > wordGap(t) && !strings.HasSuffix(text.String(), " ") && !strings.HasPrefix(t.S, " ") {
					text.WriteByte(' ')
				}
				text.WriteString(t.S)
				x1 = math.Max(x1, t.X+t.W)
				size = math.Max(size, fontSize(t))
				continue
			}
			flush()
		}
		text.WriteString(t.S)
		x0, x1, y, size = t.X, t.X+t.W, t.Y, fontSize(t)
	}
	if len(runs) > 0 {
		flush()
	}
	return frags
}

func fontSize(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize
	}
	return defaultFontSize
}

func wordGap(t pdf.Text) float64 {
	return 0.15 * fontSize(t)
}

// rulings turns drawn rectangles into grid lines: a thin rectangle is one
// horizontal or vertical rule, any other rectangle contributes its four edges.
func rulings(rects []pdf.Rect, opts Options) (horizontals, verticals []graphicsstate.ExtractedLine) {
	tol := opts.RowTolerance
	hline := func(x0, x1, y float64) {
		start, end := model.Point{X: x0, Y: y}, model.Point{X: x1, Y: y}
		horizontals = append(horizontals, graphicsstate.ExtractedLine{
			Start: start, End: end, IsHorizontal: true, BBox: model.NewBBoxFromPoints(start, end),
		})
	}
	vline := func(x, y0, y1 float64) {
		start, end := model.Point{X: x, Y: y0}, model.Point{X: x, Y: y1}
		verticals = append(verticals, graphicsstate.ExtractedLine{
			Start: start, End: end, IsVertical: true, BBox: model.NewBBoxFromPoints(start, end),
		})
	}
	for _, r := range rects {
		x0, x1 := math.Min(r.Min.X, r.Max.X), math.Max(r.Min.X, r.Max.X)
		y0, y1 := math.Min(r.Min.Y, r.Max.Y), math.Max(r.Min.Y, r.Max.Y)
		w, h := x1-x0, y1-y0
		switch {
		case h <= tol && w > tol:
			hline(x0, x1, (y0+y1)/2)
		case w <= tol && h > tol:
			vline((x0+x1)/2, y0, y1)
		case w > tol && h > tol:
			hline(x0, x1, y0)
			hline(x0, x1, y1)
			vline(x0, y0, y1)
			vline(x1, y0, y1)
		}
	}
	return horizontals, verticals
}

// fillGrid places fragments in the cells of grid. Rows without any text are
// dropped; empty cells stay null.
func fillGrid(grid *model.TableGrid, frags []model.TextFragment) models.RawTable {
	tbl := model.NewTable(grid.RowCount(), grid.ColCount())
	for _, f := range frags {
		c := f.BBox.Center()
		row := span(grid.Rows, c.Y, true)
		col := span(grid.Cols, c.X, false)
		if row < 0 || col < 0 {
			continue
		}
		cell := tbl.GetCell(row, col)
		if cell.Text != "" {
			cell.Text += " "
		}
		cell.Text += f.Text
	}
	return dropEmptyRows(toRawTable(tbl))
}

// span returns the index i with v between bounds[i] and bounds[i+1], or -1.
// Row bounds run top to bottom (descending), column bounds left to right.
func span(bounds []float64, v float64, descending bool) int {
	for i := 0; i+1 < len(bounds); i++ {
		hi, lo := bounds[i], bounds[i+1]
		if !descending {
			hi, lo = lo, hi
		}
		if v <= hi && v >= lo {
			return i
		}
	}
	return -1
}

// detectStream runs tabula's geometric detector on unruled text. Its grid is
// built from fragment edges, so columns and rows left without text are removed.
func detectStream(frags []model.TextFragment, opts Options) []models.RawTable {
	d := tabula.NewGeometricDetector()
	cfg := tabula.DefaultConfig()
	cfg.AlignmentTolerance = opts.RowTolerance
	cfg.DetectMergedCells = false
	_ = d.Configure(cfg)

	page := model.NewPage(0, 0)
	page.RawText = frags
	found, err := d.Detect(page)
	if err != nil {
		return nil
	}
	var out []models.RawTable
	for _, t := range found {
		if tbl := dropEmptyColumns(dropEmptyRows(toRawTable(t))); len(tbl) > 0 {
			out = append(out, tbl)
		}
	}
	return out
}

func toRawTable(t *model.Table) models.RawTable {
	out := make(models.RawTable, 0, t.RowCount())
	for _, row := range t.Rows {
		cells := make([]models.Cell, len(row))
		for j, c := range row {
			if s := strings.TrimSpace(c.Text); s != "" {
				cells[j] = models.Text(s)
			} else {
				cells[j] = models.Null()
			}
		}
		out = append(out, cells)
	}
	return out
}

func dropEmptyRows(t models.RawTable) models.RawTable {
	out := t[:0]
	for _, row := range t {
		for _, c := range row {
			if !c.IsNull() {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func dropEmptyColumns(t models.RawTable) models.RawTable {
	width := t.Width()
	keep := make([]int, 0, width)
	for j := 0; j < width; j++ {
		for _, row := range t {
			if j < len(row) && !row[j].IsNull() {
				keep = append(keep, j)
				break
			}
		}
	}
	if len(keep) == width {
		return t
	}
	out := make(models.RawTable, len(t))
	for i, row := range t {
		cells := make([]models.Cell, len(keep))
		for k, j := range keep {
			if j < len(row) {
				cells[k] = row[j]
			} else {
				cells[k] = models.Null()
			}
		}
		out[i] = cells
	}
	return out
}
