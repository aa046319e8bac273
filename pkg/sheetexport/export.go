package sheetexport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/format"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

// DefinitionSource supplies the sheet definitions of an export run.
type DefinitionSource interface {
	// SheetNames lists the sheets to export. With exportOrder set the
	// source's export sequence is used, otherwise declaration order.
	SheetNames(exportOrder bool) ([]string, error)
	// SheetDefinition returns the definition of one sheet.
	SheetDefinition(name string) (*models.SheetDefinition, error)
}

// Writer receives projected sheets and produces the output document.
type Writer interface {
	UpdateSheet(name string, columns []string, rows [][]interface{}, table *format.Table) error
	Finalize() error
}

// Exporter runs an export: it projects every sheet of a DefinitionSource in
// order, hands each one to a Writer and finalizes the writer once.
type Exporter struct {
	source DefinitionSource
	store  store.Store
	writer Writer
	opts   Options

	runID  string
	logger *slog.Logger

	sheets   map[string]*ExportableSheet
	order    []string
	exported bool
}

// NewExporter creates an Exporter. Nothing is fetched until Export.
func NewExporter(source DefinitionSource, st store.Store, w Writer, opts Options) *Exporter {
	runID := uuid.NewString()
	e := &Exporter{
		source: source,
		store:  st,
		writer: w,
		runID:  runID,
		logger: opts.logger().With("run_id", runID),
		sheets: make(map[string]*ExportableSheet),
	}
	opts.Logger = e.logger
	e.opts = opts
	return e
}

// RunID returns the identifier attached to every log line of the run.
func (e *Exporter) RunID() string {
	return e.runID
}

// Export projects and writes every sheet. It stops at the first failing
// sheet; the writer is not finalized in that case. An Exporter runs once.
func (e *Exporter) Export(ctx context.Context) error {
	if e.exported {
		return ErrAlreadyExported
	}
	e.exported = true

	names, err := e.source.SheetNames(e.opts.ShouldUseExportOrder())
	if err != nil {
		return fmt.Errorf("list sheets: %w", err)
	}
	e.logger.Info("export started", "sheets", len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Fail fast: later sheets are not written and nothing is finalized
		if err := e.exportSheet(ctx, name); err != nil {
			if m := e.opts.Metrics; m != nil {
				m.RecordFailure()
			}
			e.logger.Error("export failed", "sheet", name, "error", err)
			return err
		}
	}

	// Every sheet is written; finalize exactly once
	if err := e.writer.Finalize(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	e.logger.Info("export finished", "sheets", len(e.order))
	return nil
}

func (e *Exporter) exportSheet(ctx context.Context, name string) error {
	if _, ok := e.sheets[name]; ok {
		return &ValidationError{Sheet: name, Err: errDuplicateSheet}
	}

	def, err := e.source.SheetDefinition(name)
	if err != nil {
		return fmt.Errorf("load sheet %q: %w", name, err)
	}
	sheet, err := FromDefinition(ctx, def, e.store, e.opts)
	if err != nil {
		return err
	}

	// Register before writing so lookups see every projected sheet
	e.sheets[name] = sheet
	e.order = append(e.order, name)

	if m := e.opts.Metrics; m != nil {
		m.RecordSheet(name, len(sheet.Rows), sheet.Duration)
		if sheet.FellBack {
			m.RecordFallback(name)
		}
	}
	e.logger.Info("writing sheet", "sheet", name, "model", sheet.Model(), "rows", len(sheet.Rows))

	if err := e.writer.UpdateSheet(name, sheet.ColumnNames(), sheet.Rows, sheet.Formatting); err != nil {
		return fmt.Errorf("write sheet %q: %w", name, err)
	}
	return nil
}

// Sheet returns the projected sheet registered under name, or nil.
func (e *Exporter) Sheet(name string) *ExportableSheet {
	return e.sheets[name]
}

// Sheets returns the projected sheets in export order.
func (e *Exporter) Sheets() []*ExportableSheet {
	out := make([]*ExportableSheet, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.sheets[name])
	}
	return out
}

// SheetByEntityType finds the sheet whose entity type name contains typeName,
// ignoring case. It returns nil when nothing matches and an
// *AmbiguousLookupError when several sheets do.
func (e *Exporter) SheetByEntityType(typeName string) (*ExportableSheet, error) {
	q := strings.ToLower(typeName)
	var matches []string
	for _, name := range e.order {
		if strings.Contains(strings.ToLower(e.sheets[name].Model()), q) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return e.sheets[matches[0]], nil
	}
	return nil, &AmbiguousLookupError{Query: typeName, Sheets: matches}
}
