package models

// Workbook represents a workbook-level container with sheets in export order.
type Workbook struct {
	// BookName is the output file name (no path).
	BookName string `json:"book_name"`
	// Sheets lists the exported sheets in the order they were written.
	Sheets []Sheet `json:"sheets"`
}
