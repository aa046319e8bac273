package testutil

import (
	"fmt"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/format"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

// MemorySource is an in-memory definition source.
type MemorySource struct {
	// Declared lists sheet names in declaration order.
	Declared []string
	// Sequence is returned when export order is requested; nil falls back
	// to Declared.
	Sequence    []string
	Definitions map[string]*models.SheetDefinition
	NamesErr    error
}

// NewMemorySource declares defs in the given order.
func NewMemorySource(defs ...*models.SheetDefinition) *MemorySource {
	s := &MemorySource{Definitions: make(map[string]*models.SheetDefinition, len(defs))}
	for _, d := range defs {
		s.Declared = append(s.Declared, d.Name)
		s.Definitions[d.Name] = d
	}
	return s
}

func (s *MemorySource) SheetNames(exportOrder bool) ([]string, error) {
	if s.NamesErr != nil {
		return nil, s.NamesErr
	}
	if exportOrder && s.Sequence != nil {
		return s.Sequence, nil
	}
	return s.Declared, nil
}

func (s *MemorySource) SheetDefinition(name string) (*models.SheetDefinition, error) {
	d, ok := s.Definitions[name]
	if !ok {
		return nil, fmt.Errorf("no sheet named %q", name)
	}
	return d, nil
}

// WrittenSheet is one recorded UpdateSheet call.
type WrittenSheet struct {
	Name    string
	Columns []string
	Rows    [][]interface{}
	Table   *format.Table
}

// RecordingWriter records writer calls.
type RecordingWriter struct {
	Sheets []WrittenSheet
	// Calls lists "update:<name>" and "finalize" in call order.
	Calls []string

	// FailOn makes UpdateSheet fail for the named sheet.
	FailOn      string
	FinalizeErr error
}

func (w *RecordingWriter) UpdateSheet(name string, columns []string, rows [][]interface{}, table *format.Table) error {
	w.Calls = append(w.Calls, "update:"+name)
	if name == w.FailOn {
		return fmt.Errorf("cannot write %q", name)
	}
	w.Sheets = append(w.Sheets, WrittenSheet{Name: name, Columns: columns, Rows: rows, Table: table})
	return nil
}

func (w *RecordingWriter) Finalize() error {
	w.Calls = append(w.Calls, "finalize")
	return w.FinalizeErr
}

// Finalized counts Finalize calls.
func (w *RecordingWriter) Finalized() int {
	n := 0
	for _, c := range w.Calls {
		if c == "finalize" {
			n++
		}
	}
	return n
}
