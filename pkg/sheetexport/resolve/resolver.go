package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

const (
	// Separator joins the fragments of a multi-path reference.
	Separator = " - "
	// ItemPrefix starts every entry of a flattened to-many cell.
	ItemPrefix = "* "
)

// Resolver resolves a fixed list of paths on records of one entity.
type Resolver struct {
	paths []Path
}

// Compile compiles paths against entity. No paths means the primary key.
func Compile(meta store.Metadata, entity string, paths []string) (*Resolver, error) {
	if len(paths) == 0 {
		paths = []string{models.PrimaryKeyPath}
	}
	r := &Resolver{paths: make([]Path, 0, len(paths))}
	for _, p := range paths {
		compiled, err := CompilePath(meta, entity, p)
		if err != nil {
			return nil, err
		}
		r.paths = append(r.paths, compiled)
	}
	return r, nil
}

// Paths returns the compiled paths.
func (r *Resolver) Paths() []Path {
	return r.paths
}

// Resolve walks every path on rec and joins the fragments with Separator.
// ok is false when rec is nil.
func (r *Resolver) Resolve(ctx context.Context, rec store.Record) (value string, ok bool, err error) {
	if rec == nil {
		return "", false, nil
	}
	for _, p := range r.paths {
		frag, err := walk(ctx, rec, p)
		if err != nil {
			return "", false, err
		}
		if value == "" {
			value = frag
		} else {
			value = value + Separator + frag
		}
	}
	return value, true, nil
}

// ResolveMany resolves each record and renders them as a bullet list, one
// "* value" line per record.
func (r *Resolver) ResolveMany(ctx context.Context, recs []store.Record) (string, error) {
	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		v, _, err := r.Resolve(ctx, rec)
		if err != nil {
			return "", err
		}
		lines = append(lines, ItemPrefix+v)
	}
	return strings.Join(lines, "\n"), nil
}

func walk(ctx context.Context, rec store.Record, p Path) (string, error) {
	cur := rec
	for _, hop := range p.Hops {
		switch hop.Kind {
		case Related:
			next, err := cur.Related(ctx, hop.Name)
			if err != nil {
				return "", fmt.Errorf("reference path %q: %w", p.Source, err)
			}
			if next == nil {
				return "", nil
			}
			cur = next
		case Attribute:
			v, err := cur.Attribute(ctx, hop.Name)
			if err != nil {
				return "", fmt.Errorf("reference path %q: %w", p.Source, err)
			}
			return Stringify(v), nil
		}
	}
	return cur.String(), nil
}

// Stringify renders a value for display. nil renders as the empty string, so
// a nil first fragment is dropped along with its " - " separator, while a
// nil later fragment leaves a trailing separator.
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
