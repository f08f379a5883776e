package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/trazabilidad/internal/export"
	"github.com/hyperjump/trazabilidad/internal/pipeline"
)

// Inbox converts each PDF on its own into <name>.xlsx under an output directory.
type Inbox struct {
	pipeline   *pipeline.Pipeline
	exportOpts export.Options
	outputDir  string
	logger     *zap.Logger
}

// NewInbox returns an inbox writing spreadsheets to outputDir.
func NewInbox(p *pipeline.Pipeline, opts export.Options, outputDir string, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{pipeline: p, exportOpts: opts, outputDir: outputDir, logger: logger}
}

// OutputPath returns where the spreadsheet of pdfPath is written.
func (in *Inbox) OutputPath(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return filepath.Join(in.outputDir, strings.TrimSuffix(base, filepath.Ext(base))+".xlsx")
}

// Convert extracts pdfPath and writes its spreadsheet. A PDF that yields no
// records leaves no spreadsheet behind.
func (in *Inbox) Convert(ctx context.Context, pdfPath string) error {
	out := in.OutputPath(pdfPath)
	src := pipeline.Source{Name: filepath.Base(pdfPath), Path: pdfPath}
	ds, report, err := in.pipeline.Run(ctx, []pipeline.Source{src})
	for _, w := range report.Warnings {
		in.logger.Warn("inbox warning", zap.String("file", w.File), zap.Int("page", w.Page), zap.String("detail", w.Message))
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrNothingToExport) {
			_ = removeIfExists(out)
		}
		return fmt.Errorf("convert %s: %w", src.Name, err)
	}
	if err := export.WriteFile(out, ds, in.exportOpts); err != nil {
		return err
	}
	in.logger.Info("inbox converted", zap.String("file", src.Name), zap.String("output", out), zap.Int("rows", ds.Len()))
	return nil
}

// Remove deletes the spreadsheet of pdfPath, if any.
func (in *Inbox) Remove(pdfPath string) error {
	out := in.OutputPath(pdfPath)
	if err := removeIfExists(out); err != nil {
		return err
	}
	in.logger.Info("inbox output removed", zap.String("output", out))
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// NewInboxWatcher wires an inbox to a watcher over roots that reacts to .pdf files.
func NewInboxWatcher(ctx context.Context, in *Inbox, roots []string, recursive bool, opts ...WatcherOption) *Watcher {
	onReady := func(path string) {
		if err := in.Convert(ctx, path); err != nil {
			in.logger.Warn("inbox conversion failed", zap.String("path", path), zap.Error(err))
		}
	}
	onRemove := func(path string) {
		if err := in.Remove(path); err != nil {
			in.logger.Warn("inbox cleanup failed", zap.String("path", path), zap.Error(err))
		}
	}
	opts = append([]WatcherOption{WithLogger(in.logger)}, opts...)
	return NewWatcher(roots, []string{".pdf"}, recursive, onReady, onRemove, opts...)
}
