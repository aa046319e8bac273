// Package format resolves the raw formatting section of a sheet definition
// into the layout a writer applies.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

const (
	// DefaultTableStyle is used for worksheet tables without an explicit style.
	DefaultTableStyle = "TableStyleMedium2"
	// MaxColumnWidth is the widest column a worksheet accepts.
	MaxColumnWidth = 255
)

// ErrInvalidFormatting indicates a formatting section that cannot be applied.
var ErrInvalidFormatting = errors.New("invalid formatting")

var (
	hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	// R, C, R1, C12, R1C1 and RC are R1C1-style references.
	r1c1Ref = regexp.MustCompile(`(?i)^(r\d*|c\d*|r\d*c\d*)$`)
)

// Column describes one exported column for formatting purposes.
type Column struct {
	Name string
	// Multiline is set for columns holding flattened to-many values.
	Multiline bool
}

// Header styles the header row.
type Header struct {
	Bold      bool
	Fill      string
	FontColor string
}

// Table is the resolved layout of one sheet.
type Table struct {
	// Entity is the entity type the sheet was projected from.
	Entity string
	// Name is a worksheet table name derived from Entity.
	Name string
	// Headers are the header labels in column order.
	Headers []string
	// Header styles the header row (nil for no styling).
	Header *Header
	// Widths holds per-column widths; 0 leaves the default width.
	Widths []float64
	// Wrap marks columns whose cells wrap text.
	Wrap         []bool
	FreezeHeader bool
	AutoFilter   bool
	// TableStyle is set when the data range becomes a worksheet table.
	TableStyle string
	PrintArea  bool
}

// Resolve validates spec against the sheet's columns and returns the layout.
func Resolve(entity string, spec models.FormattingSpec, columns []Column) (*Table, error) {
	t := &Table{
		Entity:       entity,
		Name:         TableName(entity),
		Headers:      make([]string, len(columns)),
		Widths:       make([]float64, len(columns)),
		Wrap:         make([]bool, len(columns)),
		FreezeHeader: spec.FreezeHeader,
		AutoFilter:   spec.AutoFilter,
		PrintArea:    spec.PrintArea,
	}

	if spec.Table != nil {
		if spec.AutoFilter {
			return nil, fmt.Errorf("%w: autofilter and table are mutually exclusive", ErrInvalidFormatting)
		}
		t.TableStyle = spec.Table.Style
		if t.TableStyle == "" {
			t.TableStyle = DefaultTableStyle
		}
	}

	if h := spec.Header; h != nil {
		for _, c := range []string{h.Fill, h.FontColor} {
			if c != "" && !hexColor.MatchString(c) {
				return nil, fmt.Errorf("%w: color %q is not #RRGGBB", ErrInvalidFormatting, c)
			}
		}
		t.Header = &Header{Bold: h.Bold, Fill: h.Fill, FontColor: h.FontColor}
	}

	if err := checkWidth("default_width", spec.DefaultWidth); err != nil {
		return nil, err
	}

	wrap := spec.WrapMultiline == nil || *spec.WrapMultiline
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c.Name] = i
		t.Headers[i] = c.Name
		t.Widths[i] = spec.DefaultWidth
		t.Wrap[i] = wrap && c.Multiline
	}

	for name, w := range spec.ColumnWidths {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("%w: column_widths names unknown column %q", ErrInvalidFormatting, name)
		}
		if err := checkWidth(name, w); err != nil {
			return nil, err
		}
		t.Widths[i] = w
	}

	return t, nil
}

func checkWidth(name string, w float64) error {
	if w < 0 || w > MaxColumnWidth {
		return fmt.Errorf("%w: width of %s must be between 0 and %d", ErrInvalidFormatting, name, MaxColumnWidth)
	}
	return nil
}

// TableName derives a worksheet table name: letters, digits and underscores,
// starting with a letter or underscore, and never readable as a cell
// reference.
func TableName(entity string) string {
	var b strings.Builder
	for _, r := range entity {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	name := b.String()
	if name == "" {
		return "Table"
	}
	if first := []rune(name)[0]; unicode.IsDigit(first) || isCellReference(name) {
		name = "_" + name
	}
	return name
}

// isCellReference reports whether name reads as an A1 or R1C1 reference,
// which Excel refuses as a table name.
func isCellReference(name string) bool {
	if _, _, err := excelize.CellNameToCoordinates(name); err == nil {
		return true
	}
	return r1c1Ref.MatchString(name)
}
