package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/trazabilidad/internal/models"
	"github.com/hyperjump/trazabilidad/internal/pipeline"
)

func sampleRun() (*models.Dataset, *pipeline.Report) {
	ds := models.NewDataset([]string{"Folio", "Estado", "Recursos/Producto", "Cantidad / Peso", "Archivo"})
	for i := 0; i < 7; i++ {
		ds.AddRow([]models.Cell{
			models.Number(4821),
			models.Text("Aprobado"),
			models.Text("Salmón Atlántico filete congelado IQF"),
			models.Number(12.5),
			models.Text("Embarque_4821_v2.pdf"),
		})
	}
	report := &pipeline.Report{
		Files: 2, FailedFiles: 1, Pages: 3, Rows: 7, Filtered: 2,
		Warnings: []pipeline.Warning{
			{File: "broken.pdf", Message: "open broken.pdf: malformed PDF"},
			{File: "Embarque_4821_v2.pdf", Page: 2, Message: "other-page layout expects 18 columns, table has 12"},
		},
	}
	return ds, report
}

func TestWriteSummary_JSON(t *testing.T) {
	ds, report := sampleRun()
	var buf bytes.Buffer
	if err := WriteSummary(&buf, NewSummary("out.xlsx", ds, report), OutputJSON); err != nil {
		t.Fatalf("WriteSummary(json): %v", err)
	}
	var decoded struct {
		Output    string          `json:"output"`
		Columns   []string        `json:"columns"`
		TotalRows int             `json:"total_rows"`
		Preview   [][]interface{} `json:"preview"`
		Report    pipeline.Report `json:"report"`
	}
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Output != "out.xlsx" || decoded.TotalRows != 7 {
		t.Errorf("decoded output=%q total_rows=%d", decoded.Output, decoded.TotalRows)
	}
	if len(decoded.Preview) != PreviewRows {
		t.Errorf("preview rows: got %d, want %d", len(decoded.Preview), PreviewRows)
	}
	if decoded.Preview[0][3] != 12.5 {
		t.Errorf("numeric cell: got %v", decoded.Preview[0][3])
	}
	if len(decoded.Report.Warnings) != 2 {
		t.Errorf("warnings: got %+v", decoded.Report.Warnings)
	}
}

func TestWriteSummary_text(t *testing.T) {
	ds, report := sampleRun()
	var buf bytes.Buffer
	if err := WriteSummary(&buf, NewSummary("out.xlsx", ds, report), OutputText); err != nil {
		t.Fatalf("WriteSummary(text): %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Extracted 7 rows from 2 files (3 pages, 1 failed)",
		"Removed 2 banner/header rows",
		"Written to out.xlsx",
		"broken.pdf: open broken.pdf: malformed PDF",
		"Embarque_4821_v2.pdf (page 2):",
		"--- First 5 rows ---",
		"Salmón Atlántico filete ...",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "Aprobado") != PreviewRows {
		t.Errorf("expected %d preview rows:\n%s", PreviewRows, out)
	}
}

func TestWriteSummary_textNoData(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSummary(&buf, NewSummary("", nil, nil), OutputText); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Extracted 0 rows from 0 files") {
		t.Errorf("got %q", out)
	}
	if strings.Contains(out, "First") {
		t.Errorf("no preview expected: %q", out)
	}
}
