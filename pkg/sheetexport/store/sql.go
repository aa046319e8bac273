package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/query"
)

// DefaultDriver is the database/sql driver used when none is configured.
const DefaultDriver = "sqlite3"

// SQLStore reads records through database/sql. Queries use ? placeholders,
// which both the sqlite3 and duckdb drivers accept.
type SQLStore struct {
	db     *sql.DB
	schema *Schema
}

// New wraps an open database.
func New(db *sql.DB, schema *Schema) *SQLStore {
	return &SQLStore{db: db, schema: schema}
}

// Open opens and pings a database.
func Open(driver, dsn string, schema *Schema) (*SQLStore, error) {
	if driver == "" {
		driver = DefaultDriver
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Every SQLite connection to :memory: is a separate database.
	if driver == DefaultDriver {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	return New(db, schema), nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying database.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Entity implements Metadata.
func (s *SQLStore) Entity(name string) (*Entity, error) {
	return s.schema.Entity(name)
}

// Filter implements Store.
func (s *SQLStore) Filter(ctx context.Context, entity string, p query.Predicate) ([]Record, error) {
	e, err := s.schema.Entity(entity)
	if err != nil {
		return nil, err
	}
	return s.selectWhere(ctx, e, p)
}

// Exclude implements Store.
func (s *SQLStore) Exclude(ctx context.Context, entity string, p query.Predicate) ([]Record, error) {
	e, err := s.schema.Entity(entity)
	if err != nil {
		return nil, err
	}
	return s.selectWhere(ctx, e, query.Negate(p))
}

// RestrictColumns implements Store. To-many names are accepted and skipped.
func (s *SQLStore) RestrictColumns(ctx context.Context, entity string, names []string) ([]Record, error) {
	e, err := s.schema.Entity(entity)
	if err != nil {
		return nil, err
	}

	// Always load the primary key; deferred loads find the row by it
	cols := []string{e.PrimaryKey}
	seen := map[string]bool{e.PrimaryKey: true}
	for _, name := range names {
		// To-many relationships live in other tables
		if e.IsToMany(name) {
			continue
		}
		// Field or to-one foreign key column, each loaded once
		col, err := e.Column(name)
		if err != nil {
			return nil, err
		}
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}

	// Other columns stay unloaded until Attribute asks for them
	quotedCols := make([]string, len(cols))
	for i, c := range cols {
		quotedCols[i] = quoteIdent(c)
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(quotedCols, ", "), quoteIdent(e.Table), quoteIdent(e.PrimaryKey))
	return s.queryRecords(ctx, e, false, stmt)
}

func (s *SQLStore) selectWhere(ctx context.Context, e *Entity, p query.Predicate) ([]Record, error) {
	// The outer table is aliased t so relationship subqueries can correlate.
	stmt := "SELECT t.* FROM " + quoteIdent(e.Table) + " t"
	var args []interface{}
	if p != nil {
		where, whereArgs, err := query.ToSQL(p, func(name string) (query.Field, error) {
			return s.filterField(e, name)
		})
		if err != nil {
			return nil, err
		}
		stmt += " WHERE " + where
		args = whereArgs
	}
	stmt += " ORDER BY t." + quoteIdent(e.PrimaryKey)
	return s.queryRecords(ctx, e, true, stmt, args...)
}

// filterField resolves a filter name against the outer table alias t.
// To-many names compare against the related record's key: the join table's
// target column, or the related table's primary key for a reverse foreign key.
func (s *SQLStore) filterField(e *Entity, name string) (query.Field, error) {
	rel, ok := e.ToMany[name]
	if !ok {
		col, err := e.Column(name)
		if err != nil {
			return query.Field{}, err
		}
		return query.Field{Column: "t." + quoteIdent(col)}, nil
	}

	// Many-to-many: the join row links the outer record to the value
	outerPK := "t." + quoteIdent(e.PrimaryKey)
	if rel.Through != "" {
		return query.Field{
			Column: "j." + quoteIdent(rel.Target),
			Exists: fmt.Sprintf("FROM %s j WHERE j.%s = %s",
				quoteIdent(rel.Through), quoteIdent(rel.Source), outerPK),
		}, nil
	}

	// Reverse foreign key: related rows point back at the outer record
	target, err := s.schema.Entity(rel.Model)
	if err != nil {
		return query.Field{}, err
	}
	return query.Field{
		Column: "r." + quoteIdent(target.PrimaryKey),
		Exists: fmt.Sprintf("FROM %s r WHERE r.%s = %s",
			quoteIdent(target.Table), quoteIdent(rel.Column), outerPK),
	}, nil
}

// get loads one record by primary key.
func (s *SQLStore) get(ctx context.Context, e *Entity, pk interface{}) (Record, error) {
	stmt := fmt.Sprintf("SELECT * FROM %s WHERE %s = ?", quoteIdent(e.Table), quoteIdent(e.PrimaryKey))
	recs, err := s.queryRecords(ctx, e, true, stmt, pk)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, e.Name, pk)
	}
	return recs[0], nil
}

func (s *SQLStore) queryRecords(ctx context.Context, e *Entity, full bool, stmt string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.Name, err)
	}
	defer rows.Close()

	values, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}

	recs := make([]Record, 0, len(values))
	for _, v := range values {
		recs = append(recs, &sqlRecord{store: s, entity: e, values: v, full: full})
	}
	return recs, nil
}

// scanRows reads every row into a column-name keyed map.
func scanRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	vals := make([]interface{}, len(cols))
	ptrs := make([]interface{}, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var out []map[string]interface{}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		// Copy out of the scan buffer, which the next row reuses
		m := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			m[c] = normalizeValue(vals[i])
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// normalizeValue copies driver-owned byte slices into strings.
func normalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
