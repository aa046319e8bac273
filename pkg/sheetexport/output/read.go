package output

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

// ReadWorkbook opens an exported workbook and reads every sheet back.
func ReadWorkbook(path string) (*models.Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	areas := PrintAreas(f)
	wb := &models.Workbook{BookName: filepath.Base(path)}
	for _, name := range f.GetSheetList() {
		columns, rows, err := ReadRows(f, name)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		sheet := models.Sheet{Name: name, Columns: columns, Rows: rows}
		if a, ok := areas[name]; ok {
			sheet.PrintArea = &a
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// ReadRows reads a sheet written by XLSXWriter. Row 1 holds the column
// names; every later row with data becomes a CellRow keyed by column name.
// Empty cells are omitted.
func ReadRows(f *excelize.File, sheet string) ([]string, []models.CellRow, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	// Row 1 is the header
	columns := rows[0]
	var result []models.CellRow
	for rowIdx, row := range rows[1:] {
		rowNum := rowIdx + 2 // 1-based, after the header
		cellMap := make(map[string]interface{})
		for colIdx, raw := range row {
			if raw == "" {
				continue
			}
			// Raw values lose their type; ask the cell for it
			cellName, _ := excelize.CoordinatesToCellName(colIdx+1, rowNum)
			typ, err := f.GetCellType(sheet, cellName)
			if err != nil {
				return nil, nil, err
			}
			cellMap[columnKey(columns, colIdx)] = cellValue(typ, raw)
		}
		if len(cellMap) > 0 {
			result = append(result, models.CellRow{R: rowNum, C: cellMap})
		}
	}
	return columns, result, nil
}

func columnKey(columns []string, idx int) string {
	if idx < len(columns) && columns[idx] != "" {
		return columns[idx]
	}
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cellValue(typ excelize.CellType, raw string) interface{} {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return parseValue(raw)
	default:
		return raw
	}
}

// parseValue attempts to parse a string value as a number.
// Returns int64 for integers, float64 for decimals, or the original string.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// PrintAreas returns the print area of every sheet that declares one.
func PrintAreas(f *excelize.File) map[string]models.PrintArea {
	result := make(map[string]models.PrintArea)
	for _, dn := range f.GetDefinedName() {
		// Look for _xlnm.Print_Area defined names
		if !strings.EqualFold(dn.Name, PrintAreaName) {
			continue
		}
		sheet, area := parseAreaReference(dn.RefersTo)
		if area == nil {
			continue
		}
		// A sheet scope names the sheet even when the reference does not
		if dn.Scope != "" && dn.Scope != "Workbook" {
			sheet = dn.Scope
		}
		if sheet != "" {
			result[sheet] = *area
		}
	}
	return result
}

// parseAreaReference parses 'Sheet'!$A$1:$D$10 or Sheet!$A$1:$D$10. Only the
// first range of a multi-range reference is kept.
func parseAreaReference(ref string) (string, *models.PrintArea) {
	part := strings.TrimSpace(strings.Split(ref, ",")[0])

	// Split by ! to separate sheet name and range
	idx := strings.LastIndex(part, "!")
	if idx < 0 {
		return "", nil
	}
	// Remove quotes and unescape doubled ones
	sheet := strings.ReplaceAll(strings.Trim(part[:idx], "'"), "''", "'")
	return sheet, parseRangeToArea(part[idx+1:])
}

// parseRangeToArea parses a range string like $A$1:$D$10.
func parseRangeToArea(rangeStr string) *models.PrintArea {
	// Remove $ signs, then split by :
	parts := strings.Split(strings.ReplaceAll(rangeStr, "$", ""), ":")
	if len(parts) != 2 {
		return nil
	}
	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return nil
	}
	endCol, endRow, err := excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return nil
	}
	return &models.PrintArea{R1: startRow, C1: startCol, R2: endRow, C2: endCol}
}

// UsedRange returns the range covering every non-empty cell, for example
// "A1:C4", or "" for an empty sheet.
func UsedRange(rows [][]string) string {
	// Track bounds as 0-based indices; -1 means nothing seen yet
	minRow, maxRow, minCol, maxCol := -1, -1, -1, -1
	for r, row := range rows {
		for c, cell := range row {
			if cell == "" {
				continue
			}
			if minRow < 0 {
				minRow = r
			}
			maxRow = r
			if minCol < 0 || c < minCol {
				minCol = c
			}
			if c > maxCol {
				maxCol = c
			}
		}
	}
	if minRow < 0 {
		return ""
	}
	start, _ := excelize.CoordinatesToCellName(minCol+1, minRow+1)
	end, _ := excelize.CoordinatesToCellName(maxCol+1, maxRow+1)
	return start + ":" + end
}
