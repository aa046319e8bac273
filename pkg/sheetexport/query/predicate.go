// Package query builds store predicates from sheet filter criteria.
package query

import (
	"fmt"
	"strings"

	"github.com/ukaji3/sheetexport-go/pkg/sheetexport/models"
)

// Predicate is a composable boolean condition over store records.
// It is one of Eq, And, Or or Not.
type Predicate interface {
	predicate()
}

// Eq matches records whose field equals Value.
type Eq struct {
	Field string
	Value interface{}
}

// And matches records matching both sides.
type And struct {
	Left, Right Predicate
}

// Or matches records matching either side.
type Or struct {
	Left, Right Predicate
}

// Not matches records not matching Inner.
type Not struct {
	Inner Predicate
}

func (Eq) predicate()  {}
func (And) predicate() {}
func (Or) predicate()  {}
func (Not) predicate() {}

// Build compiles criteria into a single predicate.
//
// Every (field, value) pair of the or-list is folded into one OR chain, then
// every pair of the and-list is folded onto that result with AND. The result
// for a mixed tree is therefore (or-pairs) AND (and-pairs). Build returns nil
// when no pair was produced.
func Build(c *models.Criteria) Predicate {
	if c == nil {
		return nil
	}

	var acc Predicate
	for _, item := range c.Or {
		for _, v := range item.Values {
			eq := Eq{Field: item.Name, Value: v}
			if acc == nil {
				acc = eq
			} else {
				acc = Or{Left: acc, Right: eq}
			}
		}
	}
	for _, item := range c.And {
		for _, v := range item.Values {
			eq := Eq{Field: item.Name, Value: v}
			if acc == nil {
				acc = eq
			} else {
				acc = And{Left: acc, Right: eq}
			}
		}
	}
	return acc
}

// Negate wraps p in Not. A nil predicate stays nil.
func Negate(p Predicate) Predicate {
	if p == nil {
		return nil
	}
	return Not{Inner: p}
}

// String renders p for logging.
func String(p Predicate) string {
	var b strings.Builder
	writePredicate(&b, p)
	return b.String()
}

func writePredicate(b *strings.Builder, p Predicate) {
	switch p := p.(type) {
	case nil:
		b.WriteString("<none>")
	case Eq:
		fmt.Fprintf(b, "%s=%v", p.Field, p.Value)
	case And:
		b.WriteByte('(')
		writePredicate(b, p.Left)
		b.WriteString(" AND ")
		writePredicate(b, p.Right)
		b.WriteByte(')')
	case Or:
		b.WriteByte('(')
		writePredicate(b, p.Left)
		b.WriteString(" OR ")
		writePredicate(b, p.Right)
		b.WriteByte(')')
	case Not:
		b.WriteString("NOT ")
		writePredicate(b, p.Inner)
	default:
		fmt.Fprintf(b, "<%T>", p)
	}
}
