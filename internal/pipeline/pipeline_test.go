package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/trazabilidad/internal/config"
	"github.com/hyperjump/trazabilidad/internal/models"
	"github.com/hyperjump/trazabilidad/internal/tables"
)

func TestRun_aggregatesFilesInOrder(t *testing.T) {
	docs := map[string]tables.Document{
		"Embarque_4821_v2.pdf": &fakeDoc{pages: [][]models.RawTable{
			{formTable(LayoutFirstPage, "L1", "L2", "L3")},
		}},
		"Embarque_5000_final.pdf": &fakeDoc{pages: [][]models.RawTable{
			{formTable(LayoutFirstPage, "L4", "L5")},
			{formTable(LayoutOtherPage, "L6", "L7", "L8", "L9")},
		}},
	}
	p := New(DefaultOptions(), fakeOpener(docs), nil)
	ds, report, err := p.Run(context.Background(), []Source{
		{Name: "Embarque_4821_v2.pdf"},
		{Name: "Embarque_5000_final.pdf"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 9 {
		t.Fatalf("rows = %d, want 9", ds.Len())
	}
	if report.Files != 2 || report.Pages != 3 || report.Rows != 9 || len(report.Warnings) != 0 {
		t.Errorf("report = %+v", report)
	}

	lotes := strings.Join(column(ds, ColLote), ",")
	if lotes != "L1,L2,L3,L4,L5,L6,L7,L8,L9" {
		t.Errorf("lotes = %s", lotes)
	}
	folios := strings.Join(column(ds, ColFolio), ",")
	if folios != "4821,4821,4821,5000,5000,5000,5000,5000,5000" {
		t.Errorf("folios = %s", folios)
	}
	archivos := column(ds, ColArchivo)
	if archivos[0] != "Embarque_4821_v2.pdf" || archivos[8] != "Embarque_5000_final.pdf" {
		t.Errorf("archivos = %v", archivos)
	}
	if ds.Columns[0] != ColFolio || ds.Columns[len(ds.Columns)-1] != ColArchivo {
		t.Errorf("columns = %v", ds.Columns)
	}
	if len(ds.Columns) != 17 {
		t.Errorf("columns = %d, want 17", len(ds.Columns))
	}
	for _, c := range column(ds, ColCantidadPeso) {
		if c != "12.5" {
			t.Errorf("Cantidad / Peso = %s, want 12.5", c)
		}
	}
}

func TestRun_filtersBannersAcrossFiles(t *testing.T) {
	page := formTable(LayoutFirstPage, "L1")
	page = append(page,
		formRow(LayoutFirstPage, "Productos destinados a exportación", "", ""),
		formRow(LayoutFirstPage, "Estado", "Lote", "Cantidad"),
		formRow(LayoutFirstPage, "Productor X", "L2", "1"),
	)
	docs := map[string]tables.Document{"a_1_b.pdf": &fakeDoc{pages: [][]models.RawTable{{page}}}}

	ds, report, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "a_1_b.pdf"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 2 || report.Filtered != 2 {
		t.Errorf("rows = %d filtered = %d, want 2 and 2", ds.Len(), report.Filtered)
	}

	opts := DefaultOptions()
	opts.BannerFilter = false
	ds, _, _ = New(opts, fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "a_1_b.pdf"}})
	if ds.Len() != 4 {
		t.Errorf("rows without filter = %d, want 4", ds.Len())
	}
}

func TestRun_unresolvableFolioKeepsRows(t *testing.T) {
	docs := map[string]tables.Document{
		"report.pdf": &fakeDoc{pages: [][]models.RawTable{{formTable(LayoutFirstPage, "L1", "L2")}}},
	}
	ds, _, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "report.pdf"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("rows = %d, want 2", ds.Len())
	}
	for _, row := range ds.Rows {
		if !row[0].IsNull() {
			t.Errorf("Folio = %v, want null", row[0])
		}
	}
}

func TestRun_failedFileIsIsolated(t *testing.T) {
	docs := map[string]tables.Document{
		"good_1_a.pdf": &fakeDoc{pages: [][]models.RawTable{{formTable(LayoutFirstPage, "L1")}}},
	}
	ds, report, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(context.Background(), []Source{
		{Name: "broken.pdf"},
		{Name: "good_1_a.pdf"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("rows = %d, want 1", ds.Len())
	}
	if report.FailedFiles != 1 || len(report.Warnings) != 1 || report.Warnings[0].File != "broken.pdf" {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_pageErrorsAndShortTables(t *testing.T) {
	doc := &fakeDoc{
		pages: [][]models.RawTable{
			{formTable(LayoutFirstPage, "L1")},
			{formTable(LayoutOtherPage, "L2")},
			{{headerRow(LayoutOtherPage)}},
			{},
			{formTable(LayoutOtherPage, "L3")},
		},
		errPage: 2,
	}
	docs := map[string]tables.Document{"x_9_y.pdf": doc}
	ds, report, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "x_9_y.pdf"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.Join(column(ds, ColLote), ","); got != "L1,L3" {
		t.Errorf("lotes = %s", got)
	}
	if report.Pages != 5 || len(report.Warnings) != 1 || report.Warnings[0].Page != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestRun_singleColumnTablesIgnored(t *testing.T) {
	page := []models.RawTable{
		{models.RawRow("Trazabilidad"), models.RawRow("Página 1 de 2")},
		formTable(LayoutFirstPage, "L1"),
	}
	docs := map[string]tables.Document{"a_1_b.pdf": &fakeDoc{pages: [][]models.RawTable{page}}}
	ds, report, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "a_1_b.pdf"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 1 || len(report.Warnings) != 0 {
		t.Errorf("rows = %d warnings = %v", ds.Len(), report.Warnings)
	}
}

func TestRun_columnMismatchWarns(t *testing.T) {
	short := models.RawTable{
		models.RawRow("Estado", "Producto", "Código"),
		models.RawRow("Aprobado", "Salmón", "101"),
	}
	docs := map[string]tables.Document{"a_1_b.pdf": &fakeDoc{pages: [][]models.RawTable{{short}}}}
	ds, report, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "a_1_b.pdf"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 1 {
		t.Errorf("rows = %d, want 1", ds.Len())
	}
	if len(report.Warnings) != 1 || !strings.Contains(report.Warnings[0].Message, "first-page") {
		t.Errorf("warnings = %v", report.Warnings)
	}
}

func TestRun_nothingToExport(t *testing.T) {
	docs := map[string]tables.Document{
		"empty.pdf": &fakeDoc{pages: [][]models.RawTable{{}}},
	}
	p := New(DefaultOptions(), fakeOpener(docs), nil)
	for _, sources := range [][]Source{nil, {{Name: "empty.pdf"}}, {{Name: "missing.pdf"}}} {
		ds, _, err := p.Run(context.Background(), sources)
		if !errors.Is(err, ErrNothingToExport) {
			t.Errorf("sources %v: err = %v, want ErrNothingToExport", sources, err)
		}
		if ds != nil {
			t.Errorf("sources %v: dataset should be nil", sources)
		}
	}
}

func TestRun_cancelled(t *testing.T) {
	docs := map[string]tables.Document{
		"a_1_b.pdf": &fakeDoc{pages: [][]models.RawTable{{formTable(LayoutFirstPage, "L1")}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(DefaultOptions(), fakeOpener(docs), nil).Run(ctx, []Source{{Name: "a_1_b.pdf"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRun_detectedHeaderModes(t *testing.T) {
	tbl := models.RawTable{
		models.RawRow("Estado", "Lote", "Cantidad / Peso"),
		models.RawRow("Aprobado", "L 1", "2,5"),
	}
	docs := map[string]tables.Document{"a_1_b.pdf": &fakeDoc{pages: [][]models.RawTable{{tbl}}}}
	opts := DefaultOptions()
	opts.HeaderMode = HeaderRow0
	ds, _, err := New(opts, fakeOpener(docs), nil).Run(context.Background(), []Source{{Name: "a_1_b.pdf"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ds.Len() != 1 {
		t.Fatalf("rows = %d, want 1", ds.Len())
	}
	if got := column(ds, ColLote)[0]; got != "L1" {
		t.Errorf("Lote = %q", got)
	}
	if got := column(ds, ColCantidadPeso)[0]; got != "2.5" {
		t.Errorf("Cantidad / Peso = %q", got)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	off := false
	cfg := &config.PipelineConfig{
		HeaderMode:               "row1",
		WeightMode:               "comma",
		FolioSource:              "filename",
		BannerFilter:             &off,
		ArchivoPositionFirstPage: "start",
	}
	opts := OptionsFromConfig(cfg)
	if opts.HeaderMode != HeaderRow1 || opts.WeightMode != WeightComma || opts.FolioSource != FolioFilename {
		t.Errorf("opts = %+v", opts)
	}
	if opts.BannerFilter || !opts.DropFirstRow {
		t.Errorf("flags = %+v", opts)
	}
	if opts.ArchivoFirstPage != PositionStart || opts.ArchivoOtherPages != PositionStart {
		t.Errorf("positions = %+v", opts)
	}
	if OptionsFromConfig(nil) != DefaultOptions() {
		t.Error("nil config should give defaults")
	}
}
