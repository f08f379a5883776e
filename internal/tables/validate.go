package tables

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate checks that content is a structurally readable PDF and returns its
// page count. Validation is relaxed: only input pdfcpu cannot read at all fails.
func Validate(content []byte) (int, error) {
	if len(content) == 0 {
		return 0, fmt.Errorf("validate PDF: empty input")
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(content), conf)
	if err != nil {
		return 0, fmt.Errorf("validate PDF: failed to read PDF context: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, fmt.Errorf("validate PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return 0, fmt.Errorf("validate PDF: failed to ensure page count: %w", err)
	}
	return ctx.PageCount, nil
}
