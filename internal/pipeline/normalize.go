package pipeline

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperjump/trazabilidad/internal/models"
)

// Normalize coerces the typed columns of a mapped page table in place.
// Parse failures become null cells; Normalize never fails. In text cells each
// run of line-break control characters becomes a single space rather than
// being stripped, so "Salmon\nAtlantico" reads "Salmon Atlantico".
func Normalize(ds *models.Dataset, mode WeightMode) {
	for col, name := range ds.Columns {
		var coerce func(models.Cell) models.Cell
		switch {
		case name == ColCantidadPeso || isWeightColumn(name):
			coerce = func(c models.Cell) models.Cell { return ParseWeight(c, mode) }
		case name == ColCodigo || name == ColGuia || name == ColPesoConGlaseo:
			coerce = ParseNumber
		case name == ColLote:
			coerce = stripLote
		default:
			coerce = cleanCell
		}
		for _, row := range ds.Rows {
			row[col] = coerce(row[col])
		}
	}
}

// isWeightColumn matches quantity/weight columns by name so that drifted
// detected headers ("Cantidad/Peso (kg)") get the same treatment.
func isWeightColumn(name string) bool {
	return strings.Contains(name, "Cantidad") && strings.Contains(name, "Peso")
}

// ParseWeight converts a quantity/weight cell into a number using the locale rules of mode.
func ParseWeight(c models.Cell, mode WeightMode) models.Cell {
	if c.Kind != models.KindText {
		return c
	}
	s := strings.TrimSpace(CleanText(c.Text))
	switch mode {
	case WeightComma:
		s = strings.ReplaceAll(s, ",", ".")
	default:
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	return parseFloat(s)
}

// ParseNumber converts a text cell to a number; anything unparsable is null.
func ParseNumber(c models.Cell) models.Cell {
	if c.Kind != models.KindText {
		return c
	}
	return parseFloat(strings.TrimSpace(CleanText(c.Text)))
}

// parseFloat accepts decimal notation only. strconv would also take hex
// floats ("0x1p4") and digit underscores.
func parseFloat(s string) models.Cell {
	if s == "" || strings.Contains(s, "_") {
		return models.Null()
	}
	if u := strings.TrimLeft(s, "+-"); len(u) > 1 && u[0] == '0' && (u[1] == 'x' || u[1] == 'X') {
		return models.Null()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return models.Null()
	}
	return models.Number(f)
}

func stripLote(c models.Cell) models.Cell {
	if c.Kind != models.KindText {
		return c
	}
	return models.Text(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, norm.NFC.String(c.Text)))
}

func cleanCell(c models.Cell) models.Cell {
	if c.Kind != models.KindText {
		return c
	}
	return models.Text(CleanText(c.Text))
}

// CleanText composes the text to NFC and replaces runs of line-breaking
// control characters (line separator, vertical tab, form feed, carriage return,
// newline) left by wrapped PDF cells with a single space.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	if !strings.ContainsAny(s, "\u2028\v\f\r\n") {
		return strings.TrimSpace(s)
	}
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		switch r {
		case '\u2028', '\v', '\f', '\r', '\n':
			pending = true
			continue
		}
		if pending {
			if r != ' ' && !strings.HasSuffix(b.String(), " ") {
				b.WriteByte(' ')
			}
			pending = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
