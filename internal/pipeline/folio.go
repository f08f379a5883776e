package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/hyperjump/trazabilidad/internal/models"
)

// FolioFromFilename derives the provenance identifier of a document.
// With FolioSegment, "Embarque_4821_v2.pdf" yields 4821 and a name without a
// numeric second "_" segment yields null. With FolioFilename the base name is used.
func FolioFromFilename(name string, source FolioSource) models.Cell {
	base := filepath.Base(name)
	if source == FolioFilename {
		return models.Text(base)
	}
	parts := strings.Split(base, "_")
	if len(parts) < 2 {
		return models.Null()
	}
	return ParseNumber(models.Text(parts[1]))
}
