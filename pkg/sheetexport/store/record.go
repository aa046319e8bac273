package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqlRecord is a row fetched by SQLStore. Columns missing from values are
// loaded on first access unless the row was fetched in full.
type sqlRecord struct {
	store  *SQLStore
	entity *Entity
	values map[string]interface{}
	full   bool
}

func (r *sqlRecord) Entity() *Entity {
	return r.entity
}

func (r *sqlRecord) pk() interface{} {
	return r.values[r.entity.PrimaryKey]
}

func (r *sqlRecord) Attribute(ctx context.Context, name string) (interface{}, error) {
	col, err := r.entity.Column(name)
	if err != nil {
		return nil, err
	}
	// Already loaded
	if v, ok := r.values[col]; ok {
		return v, nil
	}
	// A full row without the column means the schema and table disagree
	if r.full {
		return nil, fmt.Errorf("%w: column %q missing from table %q", ErrUnknownField, col, r.entity.Table)
	}

	// Deferred field: load it by primary key and keep it
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		quoteIdent(col), quoteIdent(r.entity.Table), quoteIdent(r.entity.PrimaryKey))
	var v interface{}
	if err := r.store.db.QueryRowContext(ctx, stmt, r.pk()).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %v", ErrNotFound, r.entity.Name, r.pk())
		}
		return nil, fmt.Errorf("load %s.%s: %w", r.entity.Name, name, err)
	}
	v = normalizeValue(v)
	r.values[col] = v
	return v, nil
}

func (r *sqlRecord) Related(ctx context.Context, name string) (Record, error) {
	rel, ok := r.entity.ToOne[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a to-one relationship", ErrUnknownField, r.entity.Name, name)
	}
	// The foreign key value, nil for an unset relationship
	fk, err := r.Attribute(ctx, name)
	if err != nil {
		return nil, err
	}
	if fk == nil {
		return nil, nil
	}
	target, err := r.store.schema.Entity(rel.Model)
	if err != nil {
		return nil, err
	}
	return r.store.get(ctx, target, fk)
}

func (r *sqlRecord) RelatedMany(ctx context.Context, name string) ([]Record, error) {
	rel, ok := r.entity.ToMany[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s is not a to-many relationship", ErrUnknownField, r.entity.Name, name)
	}
	target, err := r.store.schema.Entity(rel.Model)
	if err != nil {
		return nil, err
	}

	// Join table, or related rows holding a foreign key back to this one
	var stmt string
	if rel.Through != "" {
		stmt = fmt.Sprintf("SELECT t.* FROM %s t JOIN %s j ON j.%s = t.%s WHERE j.%s = ? ORDER BY t.%s",
			quoteIdent(target.Table), quoteIdent(rel.Through),
			quoteIdent(rel.Target), quoteIdent(target.PrimaryKey),
			quoteIdent(rel.Source), quoteIdent(target.PrimaryKey))
	} else {
		stmt = fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY %s",
			quoteIdent(target.Table), quoteIdent(rel.Column), quoteIdent(target.PrimaryKey))
	}
	return r.store.queryRecords(ctx, target, true, stmt, r.pk())
}

// String returns the display field, or "<Entity> object (<pk>)" when the
// entity has none or it is not loaded.
func (r *sqlRecord) String() string {
	if r.entity.Display != "" {
		if col, err := r.entity.Column(r.entity.Display); err == nil {
			if v, ok := r.values[col]; ok && v != nil {
				return fmt.Sprint(v)
			}
		}
	}
	return fmt.Sprintf("%s object (%v)", r.entity.Name, r.pk())
}
