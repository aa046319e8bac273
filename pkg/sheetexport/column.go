package sheetexport

import (
	"context"
	"fmt"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/resolve"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

// ColumnKind classifies a column by the entity member it reads.
type ColumnKind int

const (
	// Scalar columns copy a field value.
	Scalar ColumnKind = iota
	// ToOne columns resolve reference paths on the related record.
	ToOne
	// ToMany columns render every related record as one bullet line.
	ToMany
)

func (k ColumnKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case ToOne:
		return "to-one"
	case ToMany:
		return "to-many"
	}
	return fmt.Sprintf("ColumnKind(%d)", int(k))
}

// Column is a compiled column of a sheet.
type Column struct {
	Name string
	Kind ColumnKind
	// Target is the related entity type for relationship columns.
	Target string

	resolver *resolve.Resolver
}

// Paths returns the compiled reference paths of a relationship column.
func (c Column) Paths() []string {
	if c.resolver == nil {
		return nil
	}
	paths := make([]string, 0, len(c.resolver.Paths()))
	for _, p := range c.resolver.Paths() {
		paths = append(paths, p.Source)
	}
	return paths
}

func compileColumn(meta store.Metadata, entity *store.Entity, cfg models.Column) (Column, error) {
	col := Column{Name: cfg.Name}

	var target string
	switch {
	case entity.IsToOne(cfg.Name):
		col.Kind = ToOne
		target = entity.ToOne[cfg.Name].Model
	case entity.IsToMany(cfg.Name):
		col.Kind = ToMany
		target = entity.ToMany[cfg.Name].Model
	case entity.HasField(cfg.Name):
		col.Kind = Scalar
		return col, nil
	default:
		return col, fmt.Errorf("%w: %s.%s", store.ErrUnknownField, entity.Name, cfg.Name)
	}

	r, err := resolve.Compile(meta, target, cfg.Paths())
	if err != nil {
		return col, err
	}
	col.Target = target
	col.resolver = r
	return col, nil
}

// value produces the cell value of the column for rec.
func (c Column) value(ctx context.Context, rec store.Record) (interface{}, error) {
	switch c.Kind {
	case ToOne:
		related, err := rec.Related(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		v, ok, err := c.resolver.Resolve(ctx, related)
		if err != nil || !ok {
			return nil, err
		}
		return v, nil
	case ToMany:
		related, err := rec.RelatedMany(ctx, c.Name)
		if err != nil {
			return nil, err
		}
		return c.resolver.ResolveMany(ctx, related)
	default:
		return rec.Attribute(ctx, c.Name)
	}
}
