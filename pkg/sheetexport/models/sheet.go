package models

// Sheet represents the projected data of a single exported sheet.
type Sheet struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Model is the entity type the sheet was projected from.
	Model string `json:"model,omitempty"`
	// Columns lists the column names in export order.
	Columns []string `json:"columns"`
	// Rows contains the data rows.
	Rows []CellRow `json:"rows,omitempty"`
	// PrintArea is the area covering header and data (nil when not requested).
	PrintArea *PrintArea `json:"print_area,omitempty"`
}
