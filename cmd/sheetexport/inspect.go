package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/output"
)

func newInspectCmd() *cobra.Command {
	var (
		sheetName string
		pretty    bool
		summary   bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [file.xlsx]",
		Short: "Print the sheets of an exported workbook as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			if _, err := os.Stat(inputPath); os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", inputPath)
			}
			if summary {
				return printSummary(cmd, inputPath)
			}

			wb, err := output.ReadWorkbook(inputPath)
			if err != nil {
				return err
			}

			var jsonData []byte
			if sheetName == "" {
				jsonData, err = output.ToJSON(wb, pretty)
			} else {
				found := false
				for i := range wb.Sheets {
					if wb.Sheets[i].Name == sheetName {
						jsonData, err = output.SheetToJSON(&wb.Sheets[i], pretty)
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("sheet %q not found in %s", sheetName, inputPath)
				}
			}
			if err != nil {
				return fmt.Errorf("serialization failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "Only print this sheet")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print one line per sheet with its row count and used range")
	return cmd
}

func printSummary(cmd *cobra.Command, path string) error {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
		data := len(rows) - 1
		if data < 0 {
			data = 0
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d rows\t%s\n", name, data, output.UsedRange(rows))
	}
	return nil
}
