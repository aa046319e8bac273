// Package output implements the writers projected sheets are handed to.
package output

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/format"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

// PrintAreaName is the defined name Excel reads a sheet's print area from.
const PrintAreaName = "_xlnm.Print_Area"

// ErrFinalized is returned by writer calls after Finalize.
var ErrFinalized = errors.New("writer already finalized")

// XLSXWriter writes one worksheet per sheet into an .xlsx workbook.
type XLSXWriter struct {
	path   string
	f      *excelize.File
	sheets int
	tables map[string]int
}

// NewXLSXWriter creates a writer that saves the workbook to path on Finalize.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{
		path:   path,
		f:      excelize.NewFile(),
		tables: make(map[string]int),
	}
}

// UpdateSheet adds a worksheet with a header row followed by rows and applies
// table's layout to it. table may be nil.
func (w *XLSXWriter) UpdateSheet(name string, columns []string, rows [][]interface{}, table *format.Table) error {
	if w.f == nil {
		return ErrFinalized
	}
	if err := w.addSheet(name); err != nil {
		return err
	}

	// Header row
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := w.f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("sheet %q: header: %w", name, err)
	}
	// Data rows start below the header
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := w.f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("sheet %q: row %d: %w", name, i+1, err)
		}
	}

	if table != nil {
		if err := w.applyLayout(name, len(columns), len(rows), table); err != nil {
			return fmt.Errorf("sheet %q: %w", name, err)
		}
	}
	w.sheets++
	return nil
}

func (w *XLSXWriter) addSheet(name string) error {
	if w.sheets == 0 {
		// A new workbook starts with Sheet1; reuse it for the first sheet.
		return w.f.SetSheetName(w.f.GetSheetName(0), name)
	}
	if idx, _ := w.f.GetSheetIndex(name); idx >= 0 {
		return fmt.Errorf("sheet %q already written", name)
	}
	_, err := w.f.NewSheet(name)
	return err
}

func (w *XLSXWriter) applyLayout(sheet string, cols, rows int, t *format.Table) error {
	if cols == 0 {
		return nil
	}
	lastCol, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}

	// Style the header row
	if h := t.Header; h != nil {
		style := &excelize.Style{Font: &excelize.Font{Bold: h.Bold, Color: h.FontColor}}
		if h.Fill != "" {
			style.Fill = excelize.Fill{Type: "pattern", Color: []string{h.Fill}, Pattern: 1}
		}
		id, err := w.f.NewStyle(style)
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		if err := w.f.SetCellStyle(sheet, "A1", lastCol+"1", id); err != nil {
			return err
		}
	}

	// Column widths, and wrapping on the data cells of multiline columns.
	// The wrap style is created once, on first use.
	wrapStyle := -1
	for i := 0; i < cols; i++ {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if i < len(t.Widths) && t.Widths[i] > 0 {
			if err := w.f.SetColWidth(sheet, col, col, t.Widths[i]); err != nil {
				return err
			}
		}
		if i < len(t.Wrap) && t.Wrap[i] && rows > 0 {
			if wrapStyle < 0 {
				wrapStyle, err = w.f.NewStyle(&excelize.Style{
					Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
				})
				if err != nil {
					return fmt.Errorf("wrap style: %w", err)
				}
			}
			if err := w.f.SetCellStyle(sheet, col+"2", fmt.Sprintf("%s%d", col, rows+1), wrapStyle); err != nil {
				return err
			}
		}
	}

	// Keep the header visible while scrolling
	if t.FreezeHeader {
		err := w.f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}

	// Header plus data rows
	dataRange := fmt.Sprintf("A1:%s%d", lastCol, rows+1)
	switch {
	case t.TableStyle != "":
		// A table needs at least one row below the header.
		if rows == 0 {
			dataRange = fmt.Sprintf("A1:%s2", lastCol)
		}
		err := w.f.AddTable(sheet, &excelize.Table{
			Range:     dataRange,
			Name:      w.tableName(t.Name),
			StyleName: t.TableStyle,
		})
		if err != nil {
			return fmt.Errorf("table: %w", err)
		}
	case t.AutoFilter:
		if err := w.f.AutoFilter(sheet, dataRange, nil); err != nil {
			return fmt.Errorf("autofilter: %w", err)
		}
	}

	// Sheet-scoped print area over the same range
	if t.PrintArea {
		area := models.AreaFor(cols, rows)
		err := w.f.SetDefinedName(&excelize.DefinedName{
			Name:     PrintAreaName,
			RefersTo: areaReference(sheet, area),
			Scope:    sheet,
		})
		if err != nil {
			return fmt.Errorf("print area: %w", err)
		}
	}
	return nil
}

// tableName makes base unique within the workbook.
func (w *XLSXWriter) tableName(base string) string {
	w.tables[base]++
	if n := w.tables[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

// Finalize activates the first sheet, saves the workbook and closes it.
func (w *XLSXWriter) Finalize() error {
	if w.f == nil {
		return ErrFinalized
	}
	f := w.f
	w.f = nil

	f.SetActiveSheet(0)
	if err := f.SaveAs(w.path); err != nil {
		f.Close()
		return fmt.Errorf("failed to save %s: %w", w.path, err)
	}
	return f.Close()
}

// areaReference renders area as an absolute reference on sheet, for example
// 'Users'!$A$1:$C$4.
func areaReference(sheet string, a models.PrintArea) string {
	start, _ := excelize.CoordinatesToCellName(a.C1, a.R1, true)
	end, _ := excelize.CoordinatesToCellName(a.C2, a.R2, true)
	return fmt.Sprintf("'%s'!%s:%s", strings.ReplaceAll(sheet, "'", "''"), start, end)
}
