// Package models defines core data structures for raw PDF tables, cells, and exported datasets.
package models

import (
	"encoding/json"
	"strconv"
)

// CellKind identifies which value a Cell holds.
type CellKind int

const (
	// KindNull is a missing or unparsable value.
	KindNull CellKind = iota
	// KindText is a string value.
	KindText
	// KindNumber is a decimal value.
	KindNumber
)

// Cell is a nullable value of a raw or normalized table.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// Null returns a null cell.
func Null() Cell {
	return Cell{Kind: KindNull}
}

// Text returns a text cell holding s.
func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

// Number returns a numeric cell holding f.
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, Number: f}
}

// IsNull reports whether the cell holds no value.
func (c Cell) IsNull() bool {
	return c.Kind == KindNull
}

// String renders the cell as text. Null renders as the empty string and numbers
// use the shortest representation that round-trips ("12.5", "4821").
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// MarshalJSON encodes null cells as null, numbers as JSON numbers and text as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindText:
		return json.Marshal(c.Text)
	case KindNumber:
		return json.Marshal(c.Number)
	default:
		return []byte("null"), nil
	}
}
