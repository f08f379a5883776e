package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8501
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 64
	}
	if cfg.Pipeline.HeaderMode == "" {
		cfg.Pipeline.HeaderMode = "fixed"
	}
	if cfg.Pipeline.WeightMode == "" {
		cfg.Pipeline.WeightMode = "dot_comma"
	}
	if cfg.Pipeline.FolioSource == "" {
		cfg.Pipeline.FolioSource = "segment"
	}
	if cfg.Pipeline.ArchivoPositionFirstPage == "" {
		cfg.Pipeline.ArchivoPositionFirstPage = "end"
	}
	if cfg.Pipeline.ArchivoPositionOtherPages == "" {
		cfg.Pipeline.ArchivoPositionOtherPages = "start"
	}
	if cfg.Export.OutputMode == "" {
		cfg.Export.OutputMode = "typed"
	}
	if cfg.Export.SheetName == "" {
		cfg.Export.SheetName = "Sheet1"
	}
	if cfg.Export.FileName == "" {
		cfg.Export.FileName = "resultado.xlsx"
	}
	if cfg.PDF.RowTolerance == 0 {
		cfg.PDF.RowTolerance = 2.0
	}
	if cfg.PDF.ColumnGap == 0 {
		cfg.PDF.ColumnGap = 8.0
	}
}

// Default returns a config with every default applied, for use when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
