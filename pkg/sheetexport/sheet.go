package sheetexport

import (
	"context"
	"fmt"
	"time"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/format"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/query"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

// SelectionMode tells how a sheet's filter predicate is applied.
type SelectionMode string

const (
	SelectAll     SelectionMode = "all"
	SelectInclude SelectionMode = "include"
	SelectExclude SelectionMode = "exclude"
)

// ExportableSheet is a projected sheet: a header and one row per record.
type ExportableSheet struct {
	Definition *models.SheetDefinition
	Entity     *store.Entity
	Columns    []Column
	Mode       SelectionMode
	// Predicate is nil when the sheet has no usable filter criteria.
	Predicate query.Predicate
	// Formatting is the resolved layout handed to the writer.
	Formatting *format.Table
	// Rows holds one value per column for every fetched record.
	Rows [][]interface{}
	// FellBack is set when a filtered sheet was fetched unfiltered.
	FellBack bool
	// Duration is the time spent fetching and projecting.
	Duration time.Duration
}

// Name returns the sheet name.
func (s *ExportableSheet) Name() string {
	return s.Definition.Name
}

// Model returns the entity type name of the sheet.
func (s *ExportableSheet) Model() string {
	return s.Entity.Name
}

// ColumnNames returns the header labels in declaration order.
func (s *ExportableSheet) ColumnNames() []string {
	return s.Definition.ColumnNames()
}

// FromDefinition validates def against st's metadata, fetches the selected
// records and projects them into rows.
//
// Validation happens before any query is issued. An EXCLUDE criteria takes
// precedence over INCLUDE. When the criteria produce no predicate, or the
// filtered result is empty and opts allow it, every record is fetched.
func FromDefinition(ctx context.Context, def *models.SheetDefinition, st store.Store, opts Options) (*ExportableSheet, error) {
	s, err := compileSheet(def, st)
	if err != nil {
		return nil, err
	}

	log := opts.logger().With("sheet", s.Name(), "model", s.Model())
	log.Debug("fetching records", "mode", s.Mode, "predicate", query.String(s.Predicate))

	start := time.Now()
	if err := s.fetch(ctx, st, opts); err != nil {
		return nil, err
	}
	s.Duration = time.Since(start)

	log.Debug("sheet projected", "rows", len(s.Rows), "fallback", s.FellBack, "duration", s.Duration)
	return s, nil
}

func compileSheet(def *models.SheetDefinition, meta store.Metadata) (*ExportableSheet, error) {
	if def == nil {
		return nil, &ValidationError{Missing: []string{"definition"}}
	}

	var missing []string
	if def.Name == "" {
		missing = append(missing, "name")
	}
	if def.Model == "" {
		missing = append(missing, "model")
	}
	if len(def.Columns) == 0 {
		missing = append(missing, "data")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Sheet: def.Name, Missing: missing}
	}

	entity, err := meta.Entity(def.Model)
	if err != nil {
		return nil, &ValidationError{Sheet: def.Name, Err: err}
	}

	s := &ExportableSheet{
		Definition: def,
		Entity:     entity,
		Columns:    make([]Column, 0, len(def.Columns)),
		Mode:       SelectAll,
	}

	seen := make(map[string]bool, len(def.Columns))
	layout := make([]format.Column, 0, len(def.Columns))
	for _, cfg := range def.Columns {
		if seen[cfg.Name] {
			return nil, &ValidationError{Sheet: def.Name, Column: cfg.Name, Err: errDuplicateColumn}
		}
		seen[cfg.Name] = true

		col, err := compileColumn(meta, entity, cfg)
		if err != nil {
			return nil, &ValidationError{Sheet: def.Name, Column: cfg.Name, Err: err}
		}
		s.Columns = append(s.Columns, col)
		layout = append(layout, format.Column{Name: col.Name, Multiline: col.Kind == ToMany})
	}

	if f := def.Filters; f != nil {
		var criteria *models.Criteria
		switch {
		case f.Exclude != nil:
			s.Mode, criteria = SelectExclude, f.Exclude
		case f.Include != nil:
			s.Mode, criteria = SelectInclude, f.Include
		}
		if criteria != nil {
			if err := checkCriteria(entity, criteria); err != nil {
				return nil, &ValidationError{Sheet: def.Name, Err: err}
			}
			s.Predicate = query.Build(criteria)
		}
	}

	s.Formatting, err = format.Resolve(entity.Name, def.Formatting, layout)
	if err != nil {
		return nil, &ValidationError{Sheet: def.Name, Err: err}
	}
	return s, nil
}

// checkCriteria rejects filter names that are neither columns, to-one nor
// to-many relationships of entity.
func checkCriteria(entity *store.Entity, c *models.Criteria) error {
	for _, items := range [][]models.CriteriaItem{c.Or, c.And} {
		for _, item := range items {
			if entity.IsToMany(item.Name) {
				continue
			}
			if _, err := entity.Column(item.Name); err != nil {
				return fmt.Errorf("filter field %q: %w", item.Name, err)
			}
		}
	}
	return nil
}

func (s *ExportableSheet) fetch(ctx context.Context, st store.Store, opts Options) error {
	var (
		recs []store.Record
		err  error
	)

	// Filtered fetch
	if s.Predicate != nil {
		if s.Mode == SelectExclude {
			recs, err = st.Exclude(ctx, s.Entity.Name, s.Predicate)
		} else {
			recs, err = st.Filter(ctx, s.Entity.Name, s.Predicate)
		}
		if err != nil {
			return NewStoreError(s.Name(), string(s.Mode), err)
		}
	}

	// Unfiltered fetch: no predicate, or an empty filtered result
	if s.Predicate == nil || (len(recs) == 0 && opts.ShouldFallbackOnEmpty()) {
		recs, err = st.RestrictColumns(ctx, s.Entity.Name, s.ColumnNames())
		if err != nil {
			return NewStoreError(s.Name(), "fetch", err)
		}
		s.FellBack = s.Mode != SelectAll
	}

	// One row per record, cells in column order
	s.Rows = make([][]interface{}, 0, len(recs))
	for _, rec := range recs {
		row := make([]interface{}, len(s.Columns))
		for i, col := range s.Columns {
			v, err := col.value(ctx, rec)
			if err != nil {
				return NewStoreError(s.Name(), "project", fmt.Errorf("column %q of %s: %w", col.Name, rec, err))
			}
			row[i] = v
		}
		s.Rows = append(s.Rows, row)
	}
	return nil
}
