// Package cli provides output helpers for the trazabilidad command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/hyperjump/trazabilidad/internal/models"
	"github.com/hyperjump/trazabilidad/internal/pipeline"
	"github.com/hyperjump/trazabilidad/pkg/utils"
)

// OutputFormat is the format of the run summary.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// PreviewRows is how many records the summary shows.
const PreviewRows = 5

const maxCellWidth = 24

// Summary describes one finished extraction.
type Summary struct {
	Output    string           `json:"output,omitempty"`
	Columns   []string         `json:"columns"`
	TotalRows int              `json:"total_rows"`
	Preview   [][]models.Cell  `json:"preview"`
	Report    *pipeline.Report `json:"report"`
}

// NewSummary builds a summary of ds with the first PreviewRows records.
func NewSummary(output string, ds *models.Dataset, report *pipeline.Report) *Summary {
	s := &Summary{Output: output, Report: report}
	if ds != nil {
		head := ds.Head(PreviewRows)
		s.Columns = head.Columns
		s.Preview = head.Rows
		s.TotalRows = ds.Len()
	}
	return s
}

// WriteSummary writes the summary to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSummary(w io.Writer, s *Summary, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return writeSummaryText(w, s)
	}
}

func writeSummaryText(w io.Writer, s *Summary) error {
	r := s.Report
	if r == nil {
		r = &pipeline.Report{}
	}
	fmt.Fprintf(w, "\nExtracted %d rows from %d files (%d pages", s.TotalRows, r.Files, r.Pages)
	if r.FailedFiles > 0 {
		fmt.Fprintf(w, ", %d failed", r.FailedFiles)
	}
	fmt.Fprintln(w, ")")
	if r.Filtered > 0 {
		fmt.Fprintf(w, "Removed %d banner/header rows\n", r.Filtered)
	}
	if s.Output != "" {
		fmt.Fprintf(w, "Written to %s\n", s.Output)
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "\n--- Warnings ---")
		for _, warn := range r.Warnings {
			if warn.Page > 0 {
				fmt.Fprintf(w, "%s (page %d): %s\n", warn.File, warn.Page, warn.Message)
			} else {
				fmt.Fprintf(w, "%s: %s\n", warn.File, warn.Message)
			}
		}
	}

	if len(s.Columns) == 0 {
		return nil
	}
	fmt.Fprintf(w, "\n--- First %d rows ---\n", len(s.Preview))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(truncateAll(s.Columns), "\t"))
	for _, row := range s.Preview {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = c.String()
		}
		fmt.Fprintln(tw, strings.Join(truncateAll(cells), "\t"))
	}
	return tw.Flush()
}

func truncateAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = utils.Truncate(v, maxCellWidth)
	}
	return out
}
