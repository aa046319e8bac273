// Package store provides entity metadata and read access to the relational
// data store sheets are projected from.
package store

import (
	"context"
	"errors"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/query"
)

var (
	// ErrUnknownEntity indicates an entity type missing from the schema.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownField indicates a name that is neither a field nor a relationship.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotFound indicates a foreign key pointing at a missing record.
	ErrNotFound = errors.New("record not found")
)

// Metadata exposes entity schemas.
type Metadata interface {
	Entity(name string) (*Entity, error)
}

// Record is one fetched record.
type Record interface {
	// Entity returns the record's entity metadata.
	Entity() *Entity
	// Attribute returns a field value. Foreign key names return the raw key.
	Attribute(ctx context.Context, name string) (interface{}, error)
	// Related returns the record behind a to-one relationship, nil when unset.
	Related(ctx context.Context, name string) (Record, error)
	// RelatedMany returns the records behind a to-many relationship.
	RelatedMany(ctx context.Context, name string) ([]Record, error)
	// String returns the record's display form.
	String() string
}

// Store executes read queries.
type Store interface {
	Metadata
	// Filter returns the records matching p.
	Filter(ctx context.Context, entity string, p query.Predicate) ([]Record, error)
	// Exclude returns the records not matching p.
	Exclude(ctx context.Context, entity string, p query.Predicate) ([]Record, error)
	// RestrictColumns returns every record, loading only the named fields
	// eagerly. Other fields are loaded on first access.
	RestrictColumns(ctx context.Context, entity string, names []string) ([]Record, error)
}
