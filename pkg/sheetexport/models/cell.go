// Package models defines data structures for sheet definitions and exported sheets.
package models

// CellRow represents a single exported row.
type CellRow struct {
	// R is the row index (1-based, the header row is 1).
	R int `json:"r"`
	// C maps column name to cell value.
	C map[string]interface{} `json:"c"`
}
