// Package config loads the run configuration of the sheetexport command.
package config

import (
	"io"
	"log/slog"
	"strings"
)

// Config is the top-level run configuration.
type Config struct {
	Database    DatabaseConfig `yaml:"database"`
	Definitions string         `yaml:"definitions"`
	Output      OutputConfig   `yaml:"output"`
	Log         LogConfig      `yaml:"log"`
	Metrics     MetricsConfig  `yaml:"metrics"`
	Export      ExportConfig   `yaml:"export"`
}

// DatabaseConfig selects the store the sheets are read from.
type DatabaseConfig struct {
	// Driver is a database/sql driver name: "sqlite3" or "duckdb".
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// OutputConfig selects the writer.
type OutputConfig struct {
	Path string `yaml:"path"`
	// Format is "xlsx" or "json".
	Format string `yaml:"format"`
	Pretty bool   `yaml:"pretty"`
	// SheetsDir receives one JSON file per sheet when set.
	SheetsDir string `yaml:"sheets_dir"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// MetricsConfig configures the metrics textfile.
type MetricsConfig struct {
	// Textfile is written in the Prometheus text format after the run.
	Textfile string `yaml:"textfile"`
}

// ExportConfig tunes projection.
type ExportConfig struct {
	// EmptyResultFallback refetches unfiltered when a filter matches nothing.
	EmptyResultFallback *bool `yaml:"empty_result_fallback"`
	// UseSequence follows export.sequence of the definitions file.
	UseSequence *bool `yaml:"use_sequence"`
}

// SlogLevel maps the configured level to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
