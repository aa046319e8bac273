package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/format"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

// ToJSON serializes a workbook to JSON.
func ToJSON(wb *models.Workbook, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(wb, "", "  ")
	}
	return json.Marshal(wb)
}

// SheetToJSON serializes a single sheet to JSON.
func SheetToJSON(sheet *models.Sheet, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(sheet, "", "  ")
	}
	return json.Marshal(sheet)
}

// JSONWriter collects sheets into a models.Workbook and writes it as JSON on
// Finalize.
type JSONWriter struct {
	out       io.Writer
	pretty    bool
	wb        *models.Workbook
	finalized bool
}

// NewJSONWriter creates a writer that writes to out.
func NewJSONWriter(out io.Writer, bookName string, pretty bool) *JSONWriter {
	return &JSONWriter{
		out:    out,
		pretty: pretty,
		wb:     &models.Workbook{BookName: bookName, Sheets: []models.Sheet{}},
	}
}

// UpdateSheet appends a sheet. Nil values are left out of the row.
func (w *JSONWriter) UpdateSheet(name string, columns []string, rows [][]interface{}, table *format.Table) error {
	if w.finalized {
		return ErrFinalized
	}
	for _, s := range w.wb.Sheets {
		if s.Name == name {
			return fmt.Errorf("sheet %q already written", name)
		}
	}

	sheet := models.Sheet{Name: name, Columns: columns}
	if table != nil {
		sheet.Model = table.Entity
		if table.PrintArea {
			area := models.AreaFor(len(columns), len(rows))
			sheet.PrintArea = &area
		}
	}
	for i, row := range rows {
		c := make(map[string]interface{}, len(row))
		for j, v := range row {
			if v != nil && j < len(columns) {
				c[columns[j]] = v
			}
		}
		sheet.Rows = append(sheet.Rows, models.CellRow{R: i + 2, C: c})
	}
	w.wb.Sheets = append(w.wb.Sheets, sheet)
	return nil
}

// Workbook returns the collected sheets.
func (w *JSONWriter) Workbook() *models.Workbook {
	return w.wb
}

// Finalize writes the workbook.
func (w *JSONWriter) Finalize() error {
	if w.finalized {
		return ErrFinalized
	}
	w.finalized = true

	data, err := ToJSON(w.wb, w.pretty)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}
	if _, err := w.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
