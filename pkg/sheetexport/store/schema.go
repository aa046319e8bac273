package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

// DefaultPrimaryKey is used when an entity does not name its primary key.
const DefaultPrimaryKey = "id"

// ToOne describes a foreign key held by the entity.
type ToOne struct {
	// Model is the related entity name.
	Model string
	// Column is the foreign key column on the entity's table.
	Column string
}

// ToMany describes a collection of related records.
//
// With Through set the relationship goes through a join table whose Source
// column references this entity and whose Target column references Model.
// Without Through, Column is a foreign key on Model's table referencing this
// entity (a reverse foreign key).
type ToMany struct {
	Model   string
	Through string
	Source  string
	Target  string
	Column  string
}

// Entity is the metadata of one entity type.
type Entity struct {
	// Name is the entity type name used by sheet definitions.
	Name string
	// Table is the backing table.
	Table string
	// PrimaryKey is the primary key column.
	PrimaryKey string
	// Display is the field used as the record's string form (optional).
	Display string
	// Fields lists the scalar columns.
	Fields []string
	// ToOne maps relationship name to foreign key.
	ToOne map[string]ToOne
	// ToMany maps relationship name to collection.
	ToMany map[string]ToMany
}

// ToOneFields returns the to-one relationship names, sorted.
func (e *Entity) ToOneFields() []string {
	names := make([]string, 0, len(e.ToOne))
	for name := range e.ToOne {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToManyFields returns the to-many relationship names, sorted.
func (e *Entity) ToManyFields() []string {
	names := make([]string, 0, len(e.ToMany))
	for name := range e.ToMany {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsToOne reports whether name is a to-one relationship.
func (e *Entity) IsToOne(name string) bool {
	_, ok := e.ToOne[name]
	return ok
}

// IsToMany reports whether name is a to-many relationship.
func (e *Entity) IsToMany(name string) bool {
	_, ok := e.ToMany[name]
	return ok
}

// HasField reports whether name is a scalar field, the primary key or its
// "pk" alias.
func (e *Entity) HasField(name string) bool {
	if name == models.PrimaryKeyPath || name == e.PrimaryKey {
		return true
	}
	for _, f := range e.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Column maps a field or to-one relationship name to its table column.
func (e *Entity) Column(name string) (string, error) {
	switch {
	case name == models.PrimaryKeyPath:
		return e.PrimaryKey, nil
	case e.HasField(name):
		return name, nil
	case e.IsToOne(name):
		return e.ToOne[name].Column, nil
	}
	return "", fmt.Errorf("%w: %s.%s", ErrUnknownField, e.Name, name)
}

// Schema is a set of entities. It implements Metadata.
type Schema struct {
	entities map[string]*Entity
	order    []string
}

// NewSchema validates the entities and their relationships.
func NewSchema(entities ...*Entity) (*Schema, error) {
	s := &Schema{entities: make(map[string]*Entity, len(entities))}
	for _, e := range entities {
		if e == nil {
			continue
		}
		if e.Name == "" {
			return nil, errors.New("entity name is required")
		}
		if _, dup := s.entities[e.Name]; dup {
			return nil, fmt.Errorf("entity %q declared twice", e.Name)
		}
		if e.Table == "" {
			return nil, fmt.Errorf("entity %q: table is required", e.Name)
		}
		if e.PrimaryKey == "" {
			e.PrimaryKey = DefaultPrimaryKey
		}
		s.entities[e.Name] = e
		s.order = append(s.order, e.Name)
	}

	for _, name := range s.order {
		if err := s.validate(s.entities[name]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Schema) validate(e *Entity) error {
	for name, rel := range e.ToOne {
		if e.HasField(name) {
			return fmt.Errorf("entity %q: %q is both a field and a relationship", e.Name, name)
		}
		if _, ok := s.entities[rel.Model]; !ok {
			return fmt.Errorf("entity %q: relationship %q: %w: %s", e.Name, name, ErrUnknownEntity, rel.Model)
		}
		if rel.Column == "" {
			return fmt.Errorf("entity %q: relationship %q: column is required", e.Name, name)
		}
	}
	for name, rel := range e.ToMany {
		if e.HasField(name) || e.IsToOne(name) {
			return fmt.Errorf("entity %q: %q is declared twice", e.Name, name)
		}
		if _, ok := s.entities[rel.Model]; !ok {
			return fmt.Errorf("entity %q: relationship %q: %w: %s", e.Name, name, ErrUnknownEntity, rel.Model)
		}
		switch {
		case rel.Through != "":
			if rel.Source == "" || rel.Target == "" {
				return fmt.Errorf("entity %q: relationship %q: through requires source and target", e.Name, name)
			}
		case rel.Column == "":
			return fmt.Errorf("entity %q: relationship %q: either through or column is required", e.Name, name)
		}
	}
	return nil
}

// Entity returns the named entity.
func (s *Schema) Entity(name string) (*Entity, error) {
	e, ok := s.entities[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, name)
	}
	return e, nil
}

// Entities returns the entities in declaration order.
func (s *Schema) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.entities[name])
	}
	return out
}
