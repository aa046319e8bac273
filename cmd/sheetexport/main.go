// Package main provides the CLI entry point for sheetexport.
package main

import (
	"os"

	"github.com/spf13/cobra"

	// Registers the "duckdb" database/sql driver; "sqlite3" comes with the store.
	_ "github.com/duckdb/duckdb-go/v2"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sheetexport",
		Short: "Export relational records into spreadsheet sheets",
		Long: `sheetexport projects the records of a SQL database into named sheets
described by a YAML definitions file, and writes them as an .xlsx workbook
or as JSON.`,
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newExportCmd(), newInspectCmd())
	return rootCmd
}
