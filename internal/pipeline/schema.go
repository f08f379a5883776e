package pipeline

import (
	"fmt"

	"github.com/hyperjump/trazabilidad/internal/models"
)

// Canonical column names.
const (
	ColFolio          = "Folio"
	ColArchivo        = "Archivo"
	ColEstado         = "Estado"
	ColProducto       = "Recursos/Producto"
	ColCodigo         = "Código"
	ColFechaElab      = "Fecha Elaboración"
	ColLote           = "Lote"
	ColCantidadPeso   = "Cantidad / Peso"
	ColPesoConGlaseo  = "Peso con Glaseo"
	ColPorcGlaseo     = "% Glaseo"
	ColRut            = "Rut"
	ColTipo           = "Tipo"
	ColNombre         = "Nombre"
	ColDireccion      = "Dirección"
	ColTipoDocumento  = "Tipo Documento"
	ColGuia           = "Guía"
	ColFechaGuia      = "Fecha Guía"
	placeholderColumn = "por eliminar"
)

// Layout is the column layout of a page of the traceability form.
type Layout int

const (
	// LayoutFirstPage carries an extra placeholder column between Tipo Documento and Guía.
	LayoutFirstPage Layout = iota
	// LayoutOtherPage is used for pages 2..N.
	LayoutOtherPage
)

// LayoutForPage returns the layout of a 1-based page index.
func LayoutForPage(page int) Layout {
	if page <= 1 {
		return LayoutFirstPage
	}
	return LayoutOtherPage
}

func (l Layout) String() string {
	if l == LayoutFirstPage {
		return "first-page"
	}
	return "other-page"
}

var firstPageColumns = []string{
	ColEstado, ColProducto, ColCodigo, ColFechaElab, ColLote, ColCantidadPeso,
	ColPesoConGlaseo, ColPorcGlaseo, placeholderColumn, ColRut, ColTipo, ColNombre, ColDireccion,
	ColTipoDocumento, placeholderColumn, ColGuia, ColFechaGuia, placeholderColumn, placeholderColumn,
}

var otherPageColumns = []string{
	ColEstado, ColProducto, ColCodigo, ColFechaElab, ColLote, ColCantidadPeso,
	ColPesoConGlaseo, ColPorcGlaseo, placeholderColumn, ColRut, ColTipo, ColNombre, ColDireccion,
	ColTipoDocumento, ColGuia, ColFechaGuia, placeholderColumn, placeholderColumn,
}

// Columns returns a copy of the positional canonical names of the layout,
// placeholders included.
func (l Layout) Columns() []string {
	if l == LayoutFirstPage {
		return append([]string(nil), firstPageColumns...)
	}
	return append([]string(nil), otherPageColumns...)
}

// Provenance tags every row of one document.
type Provenance struct {
	Folio   models.Cell
	Archivo string
}

// MapSchema assigns names to the body columns, drops placeholder columns and
// adds the Folio and Archivo columns. A non-empty warning is returned when the
// body width does not match the canonical names of fixed mode; the names are
// then cut to the available columns.
func MapSchema(header []string, body models.RawTable, layout Layout, prov Provenance, opts Options) (*models.Dataset, string) {
	names := append([]string(nil), header...)
	width := body.Width()
	var warning string

	if opts.HeaderMode == HeaderFixed || opts.HeaderMode == "" {
		if width != len(names) {
			warning = fmt.Sprintf("%s layout expects %d columns, table has %d", layout, len(names), width)
			if width < len(names) {
				names = names[:width]
			}
		}
	} else {
		for i := len(names); i < width; i++ {
			names = append(names, fmt.Sprintf("Unnamed: %d", i))
		}
	}

	ds := models.NewDataset(names)
	for _, row := range body {
		ds.AddRow(row)
	}
	ds.DropColumns(placeholderColumn)

	ds.InsertColumn(0, ColFolio, prov.Folio)
	archivo := models.Text(prov.Archivo)
	if opts.archivoPosition(layout) == PositionStart {
		ds.InsertColumn(1, ColArchivo, archivo)
	} else {
		ds.InsertColumn(len(ds.Columns), ColArchivo, archivo)
	}
	return ds, warning
}
