package config

// Default values for configuration fields.
const (
	DefaultDriver       = "sqlite3"
	DefaultOutputPath   = "export.xlsx"
	DefaultOutputFormat = FormatXLSX
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
)

// Output formats.
const (
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// ApplyDefaults fills unset fields with their defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDriver
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}
	if cfg.Output.Path == "" && cfg.Output.Format == FormatXLSX {
		cfg.Output.Path = DefaultOutputPath
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
