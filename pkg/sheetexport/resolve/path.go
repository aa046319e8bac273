// Package resolve turns relationship reference paths into display strings.
package resolve

import (
	"fmt"
	"strings"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/store"
)

// HopKind tells how a hop is read from the current record.
type HopKind int

const (
	// Attribute reads a field value. It is always the last hop.
	Attribute HopKind = iota
	// Related follows a to-one relationship.
	Related
)

func (k HopKind) String() string {
	if k == Related {
		return "related"
	}
	return "attribute"
}

// Hop is one step of a compiled path.
type Hop struct {
	Name string
	Kind HopKind
}

// Path is a dotted reference path compiled against an entity.
type Path struct {
	// Source is the dotted path as written.
	Source string
	// Entity is the entity the path starts at.
	Entity string
	Hops   []Hop
}

// PathError reports a hop that is not defined for the entity it is applied to.
type PathError struct {
	Path   string
	Hop    string
	Entity string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("reference path %q: %s %q on %s", e.Path, e.Reason, e.Hop, e.Entity)
}

// CompilePath validates every hop of a dotted path, starting at entity.
func CompilePath(meta store.Metadata, entity, path string) (Path, error) {
	cur, err := meta.Entity(entity)
	if err != nil {
		return Path{}, err
	}

	compiled := Path{Source: path, Entity: entity}
	parts := strings.Split(path, ".")
	for i, name := range parts {
		last := i == len(parts)-1
		switch {
		case name == "":
			return Path{}, &PathError{Path: path, Hop: name, Entity: cur.Name, Reason: "empty hop"}
		case cur.IsToOne(name):
			compiled.Hops = append(compiled.Hops, Hop{Name: name, Kind: Related})
			next, err := meta.Entity(cur.ToOne[name].Model)
			if err != nil {
				return Path{}, err
			}
			cur = next
		case cur.HasField(name):
			if !last {
				return Path{}, &PathError{Path: path, Hop: name, Entity: cur.Name, Reason: "cannot traverse field"}
			}
			compiled.Hops = append(compiled.Hops, Hop{Name: name, Kind: Attribute})
		case cur.IsToMany(name):
			return Path{}, &PathError{Path: path, Hop: name, Entity: cur.Name, Reason: "cannot traverse to-many relationship"}
		default:
			return Path{}, &PathError{Path: path, Hop: name, Entity: cur.Name, Reason: "undefined hop"}
		}
	}
	return compiled, nil
}
