package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/config"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/metrics"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/output"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/parser"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

type exportFlags struct {
	configPath  string
	definitions string
	dsn         string
	driver      string
	outputPath  string
	format      string
	pretty      bool
	sheetsDir   string
	logLevel    string
	textfile    string
	noFallback  bool
	declared    bool
}

func newExportCmd() *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the sheets of a definitions file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			return runExport(cmd, cfg)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.configPath, "config", "c", "", "Configuration file (YAML)")
	fl.StringVarP(&f.definitions, "definitions", "d", "", "Sheet definitions file (YAML)")
	fl.StringVar(&f.dsn, "db", "", "Database DSN")
	fl.StringVar(&f.driver, "driver", "", "Database driver: sqlite3 or duckdb")
	fl.StringVarP(&f.outputPath, "output", "o", "", "Output file path (json default: stdout)")
	fl.StringVar(&f.format, "format", "", "Output format: xlsx or json")
	fl.BoolVar(&f.pretty, "pretty", false, "Pretty-print JSON output")
	fl.StringVar(&f.sheetsDir, "sheets-dir", "", "Directory for per-sheet JSON files")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fl.StringVar(&f.textfile, "metrics-textfile", "", "Write run metrics to this file")
	fl.BoolVar(&f.noFallback, "no-fallback", false, "Export nothing when a filter matches no records")
	fl.BoolVar(&f.declared, "declared-order", false, "Ignore export.sequence and use declaration order")
	return cmd
}

// config loads the configuration file and applies the flags that were set.
func (f *exportFlags) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("definitions") {
		cfg.Definitions = f.definitions
	}
	if fl.Changed("db") {
		cfg.Database.DSN = f.dsn
	}
	if fl.Changed("driver") {
		cfg.Database.Driver = f.driver
	}
	if fl.Changed("output") {
		cfg.Output.Path = f.outputPath
	}
	if fl.Changed("format") {
		cfg.Output.Format = f.format
	}
	if fl.Changed("pretty") {
		cfg.Output.Pretty = f.pretty
	}
	if fl.Changed("sheets-dir") {
		cfg.Output.SheetsDir = f.sheetsDir
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if fl.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = f.textfile
	}
	if fl.Changed("no-fallback") {
		fallback := !f.noFallback
		cfg.Export.EmptyResultFallback = &fallback
	}
	if fl.Changed("declared-order") {
		sequence := !f.declared
		cfg.Export.UseSequence = &sequence
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runExport(cmd *cobra.Command, cfg *config.Config) error {
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())

	defs, err := parser.Load(cfg.Definitions)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, defs.Schema())
	if err != nil {
		return err
	}
	defer st.Close()

	var collector *metrics.Collector
	if cfg.Metrics.Textfile != "" {
		collector = metrics.NewCollector(nil)
	}

	var (
		writer     sheetexport.Writer
		jsonWriter *output.JSONWriter
	)
	switch cfg.Output.Format {
	case config.FormatJSON:
		out := cmd.OutOrStdout()
		if cfg.Output.Path != "" {
			file, err := os.Create(cfg.Output.Path)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer file.Close()
			out = file
		}
		jsonWriter = output.NewJSONWriter(out, bookName(cfg.Output.Path, cfg.Definitions), cfg.Output.Pretty)
		writer = jsonWriter
	default:
		writer = output.NewXLSXWriter(cfg.Output.Path)
	}

	exporter := sheetexport.NewExporter(defs, st, writer, sheetexport.Options{
		ExportOrder:         cfg.Export.UseSequence,
		EmptyResultFallback: cfg.Export.EmptyResultFallback,
		Logger:              logger,
		Metrics:             collector,
	})
	exportErr := exporter.Export(cmd.Context())

	if collector != nil {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	if exportErr != nil {
		return fmt.Errorf("export failed: %w", exportErr)
	}

	if jsonWriter != nil && cfg.Output.SheetsDir != "" {
		if err := writeSheetFiles(jsonWriter.Workbook(), cfg.Output.SheetsDir, cfg.Output.Pretty); err != nil {
			return fmt.Errorf("failed to write sheet files: %w", err)
		}
	}
	if cfg.Output.Path != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d sheets to %s\n", len(exporter.Sheets()), cfg.Output.Path)
	}
	return nil
}

func bookName(outputPath, definitions string) string {
	if outputPath != "" {
		return filepath.Base(outputPath)
	}
	return filepath.Base(definitions)
}

func writeSheetFiles(wb *models.Workbook, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for i := range wb.Sheets {
		jsonData, err := output.SheetToJSON(&wb.Sheets[i], pretty)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, wb.Sheets[i].Name+".json")
		if err := os.WriteFile(filename, jsonData, 0644); err != nil {
			return err
		}
	}
	return nil
}
