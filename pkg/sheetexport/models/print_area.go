package models

// PrintArea represents cell coordinate bounds for a print area.
type PrintArea struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// AreaFor returns the area spanning a header row and the given number of
// data rows over the given number of columns.
func AreaFor(columns, rows int) PrintArea {
	if columns < 1 {
		columns = 1
	}
	return PrintArea{R1: 1, C1: 1, R2: rows + 1, C2: columns}
}
