package sheetexport

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyExported indicates a second Export call on the same Exporter.
var ErrAlreadyExported = errors.New("export already ran")

var (
	errDuplicateSheet  = errors.New("duplicate sheet name")
	errDuplicateColumn = errors.New("duplicate column")
)

// ValidationError reports a sheet definition that cannot be projected.
type ValidationError struct {
	// Sheet is the sheet name, when known.
	Sheet string
	// Missing lists the required fields that are absent.
	Missing []string
	// Column is the offending column, if any.
	Column string
	Err    error
}

func (e *ValidationError) Error() string {
	var msg string
	switch {
	case len(e.Missing) > 0:
		msg = strings.Join(e.Missing, ",") + " missing"
	case e.Column != "":
		msg = fmt.Sprintf("column %q: %v", e.Column, e.Err)
	case e.Err != nil:
		msg = e.Err.Error()
	default:
		msg = "invalid sheet definition"
	}
	if e.Sheet != "" {
		return fmt.Sprintf("sheet %q: %s", e.Sheet, msg)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AmbiguousLookupError reports an entity type query matching several sheets.
type AmbiguousLookupError struct {
	Query  string
	Sheets []string
}

func (e *AmbiguousLookupError) Error() string {
	return fmt.Sprintf("multiple sheets for entity type %q (%s); try the fully qualified name",
		e.Query, strings.Join(e.Sheets, ", "))
}

// StoreError represents a failure of the data store while projecting a sheet.
type StoreError struct {
	SheetName string
	Op        string // "include", "exclude", "fetch", "project"
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error in sheet %q (%s): %v", e.SheetName, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(sheetName, op string, err error) *StoreError {
	return &StoreError{
		SheetName: sheetName,
		Op:        op,
		Err:       err,
	}
}
