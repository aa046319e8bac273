package models

// PrimaryKeyPath is the reference path used when a column config names none.
const PrimaryKeyPath = "pk"

// SheetDefinition describes one sheet to export.
type SheetDefinition struct {
	// Name is the sheet name, unique across an export run.
	Name string
	// Model is the entity type the sheet projects.
	Model string
	// Columns lists the column configs in declaration order.
	Columns []Column
	// Filters selects the exported records (nil exports everything).
	Filters *FilterSpec
	// Formatting is passed through to the formatting resolver.
	Formatting FormattingSpec
}

// ColumnNames returns the column names in declaration order.
func (d *SheetDefinition) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column is the config of a single column.
type Column struct {
	// Name is the entity field the column is read from.
	Name string
	// References lists the paths used to display related records.
	References []Reference
}

// Paths returns the reference paths, defaulting to the primary key.
func (c Column) Paths() []string {
	if len(c.References) == 0 {
		return []string{PrimaryKeyPath}
	}
	paths := make([]string, 0, len(c.References))
	for _, r := range c.References {
		paths = append(paths, r.Path)
	}
	return paths
}

// Reference is a labelled dotted path into a related record.
type Reference struct {
	Label string `yaml:"label" json:"label"`
	Path  string `yaml:"path" json:"path"`
}

// FilterSpec holds the include or exclude criteria of a sheet.
// When both are set, Exclude wins.
type FilterSpec struct {
	Include *Criteria `yaml:"INCLUDE,omitempty"`
	Exclude *Criteria `yaml:"EXCLUDE,omitempty"`
}

// Criteria holds the or-list and and-list of one selection mode.
type Criteria struct {
	Or  []CriteriaItem `yaml:"or,omitempty"`
	And []CriteriaItem `yaml:"and,omitempty"`
}

// CriteriaItem matches a field against candidate values.
type CriteriaItem struct {
	Name   string        `yaml:"name"`
	Values []interface{} `yaml:"values"`
}

// FormattingSpec is the raw formatting section of a sheet definition.
type FormattingSpec struct {
	Header        *HeaderSpec        `yaml:"header,omitempty"`
	FreezeHeader  bool               `yaml:"freeze_header,omitempty"`
	AutoFilter    bool               `yaml:"autofilter,omitempty"`
	Table         *TableSpec         `yaml:"table,omitempty"`
	ColumnWidths  map[string]float64 `yaml:"column_widths,omitempty"`
	DefaultWidth  float64            `yaml:"default_width,omitempty"`
	WrapMultiline *bool              `yaml:"wrap_multiline,omitempty"`
	PrintArea     bool               `yaml:"print_area,omitempty"`
}

// HeaderSpec styles the header row.
type HeaderSpec struct {
	Bold      bool   `yaml:"bold,omitempty"`
	Fill      string `yaml:"fill,omitempty"`
	FontColor string `yaml:"font_color,omitempty"`
}

// TableSpec turns the data range into a worksheet table.
type TableSpec struct {
	Style string `yaml:"style,omitempty"`
}
