// Package main is the trazabilidad CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/trazabilidad/internal/cli"
	"github.com/hyperjump/trazabilidad/internal/config"
	"github.com/hyperjump/trazabilidad/internal/export"
	"github.com/hyperjump/trazabilidad/internal/pipeline"
	"github.com/hyperjump/trazabilidad/internal/server"
	"github.com/hyperjump/trazabilidad/internal/tables"
	"github.com/hyperjump/trazabilidad/internal/watcher"
	"github.com/hyperjump/trazabilidad/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/trazabilidad/config.yaml"

// loadConfig loads config from path. When path is the default, config.yaml in
// the current directory takes precedence, and a missing default file falls back
// to built-in defaults. Returns the config and the path that was loaded ("" for
// built-in defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "extract":
		os.Exit(runExtract(os.Args[2:]))
	case "watch":
		runWatch()
	case "version", "--version", "-v":
		fmt.Printf("trazabilidad version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config and builds the logger; debugFlag forces debug logging.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	if resolved == "" {
		resolved = "(defaults)"
	}
	logger.Debug("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))
	return cfg, logger
}

func newPipeline(cfg *config.Config, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.OptionsFromConfig(&cfg.Pipeline),
		pipeline.OpenPDF(tables.OptionsFromConfig(&cfg.PDF)),
		logger,
	)
}

// newInboxWatcher returns nil when no inbox is configured.
func newInboxWatcher(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *zap.Logger) *watcher.Watcher {
	if len(cfg.Watch.Directories) == 0 || cfg.Watch.OutputDir == "" {
		return nil
	}
	inbox := watcher.NewInbox(p, export.OptionsFromConfig(&cfg.Export), cfg.Watch.OutputDir, logger)
	return watcher.NewInboxWatcher(ctx, inbox, cfg.Watch.Directories, cfg.Watch.RecursiveOrDefault())
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (per-page extraction, watcher events)")
	port := fs.Int("port", 0, "listen port (overrides config)")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *port > 0 {
		cfg.Server.Port = *port
	}

	p := newPipeline(cfg, logger)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if w := newInboxWatcher(watchCtx, cfg, p, logger); w != nil {
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		w.SyncExistingFiles()
		logger.Info("inbox watcher started", zap.Strings("directories", w.Directories()), zap.String("output_dir", cfg.Watch.OutputDir))
	}

	srv := server.NewServer(p, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// runExtract converts PDFs given on the command line into one spreadsheet and
// returns the process exit code.
func runExtract(args []string) int {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	out := fs.String("o", "", "output spreadsheet (default: export.file_name from config)")
	format := fs.String("format", "text", "summary format: text or json")
	mode := fs.String("mode", "", "cell output mode: text or typed (overrides config)")
	_ = fs.Parse(argsReorder(fs, args))

	files := fs.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: trazabilidad extract [flags] <file.pdf>...")
		fs.PrintDefaults()
		return 1
	}
	outputFormat, err := parseFormat(*format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if *mode != "" {
		cfg.Export.OutputMode = *mode
		if err := config.Validate(cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	outPath := *out
	if outPath == "" {
		outPath = cfg.Export.FileName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	summary, err := extractFiles(ctx, cfg, newPipeline(cfg, logger), files, outPath)
	if summary != nil {
		if werr := cli.WriteSummary(os.Stdout, summary, outputFormat); werr != nil {
			fmt.Fprintf(os.Stderr, "Failed to write summary: %v\n", werr)
		}
	}
	if err != nil {
		if errors.Is(err, pipeline.ErrNothingToExport) {
			fmt.Fprintln(os.Stderr, "No tables could be extracted from the given files; nothing was written.")
		} else {
			fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", err)
		}
		return 1
	}
	return 0
}

// extractFiles runs the pipeline over files in order and writes the workbook
// to outPath. The summary is returned even when nothing could be exported.
func extractFiles(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, files []string, outPath string) (*cli.Summary, error) {
	sources := make([]pipeline.Source, len(files))
	for i, f := range files {
		sources[i] = pipeline.Source{Name: filepath.Base(f), Path: f}
	}
	ds, report, err := p.Run(ctx, sources)
	if err != nil {
		return cli.NewSummary("", nil, report), err
	}
	if err := export.WriteFile(outPath, ds, export.OptionsFromConfig(&cfg.Export)); err != nil {
		return cli.NewSummary("", ds, report), err
	}
	return cli.NewSummary(outPath, ds, report), nil
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	outputDir := fs.String("output", "", "directory for generated spreadsheets (overrides config)")
	recursive := fs.Bool("recursive", false, "watch subdirectories too")
	_ = fs.Parse(argsReorder(fs, os.Args[2:]))

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	if dirs := fs.Args(); len(dirs) > 0 {
		cfg.Watch.Directories = absPaths(dirs)
	}
	if *outputDir != "" {
		cfg.Watch.OutputDir = *outputDir
	}
	if *recursive {
		cfg.Watch.Recursive = recursive
	}
	if len(cfg.Watch.Directories) == 0 || cfg.Watch.OutputDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: trazabilidad watch -output <dir> <inbox-dir>... (or set watch.directories and watch.output_dir in config)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	w := newInboxWatcher(ctx, cfg, newPipeline(cfg, logger), logger)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	w.SyncExistingFiles()
	logger.Info("watching", zap.Strings("directories", w.Directories()), zap.String("output_dir", cfg.Watch.OutputDir))
	<-ctx.Done()
	w.Stop()
	logger.Info("Shutting down...")
}

// argsReorder moves flags (and their values) to the front so that flag.Parse
// sees them, keeping positional arguments in their original order. Go's flag
// package stops at the first non-flag argument, so "trazabilidad extract a.pdf
// -o out.xlsx b.pdf" would otherwise leave -o unparsed. A lone "--" ends flag
// scanning.
func argsReorder(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") {
			continue
		}
		if takesValue(fs, name) && i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}
	return append(flags, positional...)
}

func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
		return false
	}
	return true
}

func parseFormat(s string) (cli.OutputFormat, error) {
	switch cli.OutputFormat(s) {
	case cli.OutputText, cli.OutputJSON:
		return cli.OutputFormat(s), nil
	}
	return "", fmt.Errorf("invalid -format %q: use text or json", s)
}

func absPaths(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			out[i] = abs
		} else {
			out[i] = p
		}
	}
	return out
}

func printUsage() {
	fmt.Println(`trazabilidad - Traceability tables from PDF to Excel

Usage:
  trazabilidad server [flags]                 Start the upload/download web server
  trazabilidad extract [flags] <file.pdf>...  Convert PDFs into one spreadsheet
  trazabilidad watch [flags] <inbox-dir>...   Convert PDFs dropped into inbox directories
  trazabilidad version                        Show version
  trazabilidad help                           Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/trazabilidad/config.yaml)
  --debug            Enable debug logging
  --port int         Listen port (default from config, 8501)

Extract Flags:
  --config string    Config file path
  --o string         Output spreadsheet (default: resultado.xlsx)
  --format string    Summary format: text or json (default: text)
  --mode string      Cell output mode: text or typed (default from config)

Watch Flags:
  --config string    Config file path
  --output string    Directory for generated spreadsheets
  --recursive        Watch subdirectories too

Examples:
  trazabilidad server
  trazabilidad extract Embarque_4821_v2.pdf Embarque_4822_v1.pdf
  trazabilidad extract -o salida.xlsx -format json *.pdf
  trazabilidad watch -output ./salida ./entrada`)
}
