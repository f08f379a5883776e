package pipeline

import (
	"strings"

	"github.com/hyperjump/trazabilidad/internal/models"
)

const (
	bannerPrefix         = "Productos"
	repeatedHeaderPrefix = "Estado"
)

// FilterBanners removes section banner rows ("Productos ...") and header
// fragments repeated below the first row ("Estado ..."). The first data
// column, the first one that is not Folio or Archivo, is tested with a
// case-sensitive prefix match; null cells never match. It returns the number
// of rows removed.
func FilterBanners(ds *models.Dataset) int {
	col := firstDataColumn(ds.Columns)
	if col < 0 {
		return 0
	}
	return ds.Filter(func(i int, row []models.Cell) bool {
		c := row[col]
		if c.IsNull() {
			return true
		}
		s := c.String()
		if strings.HasPrefix(s, bannerPrefix) {
			return false
		}
		return i == 0 || !strings.HasPrefix(s, repeatedHeaderPrefix)
	})
}

func firstDataColumn(columns []string) int {
	for i, c := range columns {
		if c != ColFolio && c != ColArchivo {
			return i
		}
	}
	return -1
}
