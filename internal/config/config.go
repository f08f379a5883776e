// Package config provides configuration loading and structs for the trazabilidad exporter.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Export    ExportConfig    `yaml:"export"`
	PDF       PDFConfig       `yaml:"pdf"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Watch     WatchConfig     `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// PipelineConfig selects the header, layout and normalization variant of the extraction pipeline.
type PipelineConfig struct {
	// HeaderMode is "fixed", "row0" or "row1".
	HeaderMode string `yaml:"header_mode"`
	// DropFirstRow discards row 0 in fixed mode; defaults to true when unset.
	DropFirstRow *bool `yaml:"drop_first_row"`
	// WeightMode is "comma" or "dot_comma".
	WeightMode string `yaml:"weight_mode"`
	// FolioSource is "segment" or "filename".
	FolioSource string `yaml:"folio_source"`
	// BannerFilter drops section banners and repeated headers; defaults to true when unset.
	BannerFilter *bool `yaml:"banner_filter"`
	// ArchivoPositionFirstPage and ArchivoPositionOtherPages are "start" or "end".
	ArchivoPositionFirstPage  string `yaml:"archivo_position_first_page"`
	ArchivoPositionOtherPages string `yaml:"archivo_position_other_pages"`
}

// DropFirstRowOrDefault returns whether fixed mode discards row 0; defaults to true when unset.
func (p *PipelineConfig) DropFirstRowOrDefault() bool {
	if p.DropFirstRow != nil {
		return *p.DropFirstRow
	}
	return true
}

// BannerFilterOrDefault returns whether the row filter runs; defaults to true when unset.
func (p *PipelineConfig) BannerFilterOrDefault() bool {
	if p.BannerFilter != nil {
		return *p.BannerFilter
	}
	return true
}

// ExportConfig holds spreadsheet output settings.
type ExportConfig struct {
	// OutputMode is "text" (every value a string) or "typed".
	OutputMode string `yaml:"output_mode"`
	SheetName  string `yaml:"sheet_name"`
	FileName   string `yaml:"file_name"`
}

// PDFConfig tunes the raw table reader.
type PDFConfig struct {
	// Validate runs structural validation before reading tables; defaults to true when unset.
	Validate     *bool   `yaml:"validate"`
	RowTolerance float64 `yaml:"row_tolerance"`
	ColumnGap    float64 `yaml:"column_gap"`
	// Stream also reads tables without ruling lines.
	Stream       bool    `yaml:"stream"`
}

// ValidateOrDefault returns whether uploads are validated; defaults to true when unset.
func (p *PDFConfig) ValidateOrDefault() bool {
	if p.Validate != nil {
		return *p.Validate
	}
	return true
}

// WorkspaceConfig holds where per-operation temporary files are created.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// WatchConfig holds inbox watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	OutputDir   string   `yaml:"output_dir"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to false when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return false
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed, or holds an unknown mode.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Workspace.Root = expandPath(cfg.Workspace.Root, configDir)
	cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Validate rejects mode values the pipeline does not know.
func Validate(cfg *Config) error {
	checks := []struct {
		key     string
		value   string
		allowed []string
	}{
		{"pipeline.header_mode", cfg.Pipeline.HeaderMode, []string{"fixed", "row0", "row1"}},
		{"pipeline.weight_mode", cfg.Pipeline.WeightMode, []string{"comma", "dot_comma"}},
		{"pipeline.folio_source", cfg.Pipeline.FolioSource, []string{"segment", "filename"}},
		{"pipeline.archivo_position_first_page", cfg.Pipeline.ArchivoPositionFirstPage, []string{"start", "end"}},
		{"pipeline.archivo_position_other_pages", cfg.Pipeline.ArchivoPositionOtherPages, []string{"start", "end"}},
		{"export.output_mode", cfg.Export.OutputMode, []string{"text", "typed"}},
	}
	for _, c := range checks {
		if !contains(c.allowed, c.value) {
			return fmt.Errorf("invalid %s %q (want one of %s)", c.key, c.value, strings.Join(c.allowed, ", "))
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
