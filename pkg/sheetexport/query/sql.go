package query

import (
	"errors"
	"fmt"
	"strings"
)

// Field is a predicate field resolved to SQL.
type Field struct {
	// Column is the quoted column expression compared with the value.
	Column string
	// Exists holds the FROM and WHERE clauses of a correlated subquery for
	// fields backed by a to-many relationship. Such a field equals a value
	// when any subquery row has Column equal to it, and is null when the
	// subquery has no rows.
	Exists string
}

// ColumnFunc resolves a predicate field.
type ColumnFunc func(field string) (Field, error)

// ToSQL compiles p into a boolean SQL expression using ? placeholders.
// Args are returned in placeholder order.
func ToSQL(p Predicate, column ColumnFunc) (string, []interface{}, error) {
	if p == nil {
		return "", nil, errors.New("nil predicate")
	}
	var (
		b    strings.Builder
		args []interface{}
	)
	if err := writeSQL(&b, &args, p, column); err != nil {
		return "", nil, err
	}
	return b.String(), args, nil
}

func writeSQL(b *strings.Builder, args *[]interface{}, p Predicate, column ColumnFunc) error {
	switch p := p.(type) {
	case Eq:
		f, err := column(p.Field)
		if err != nil {
			return err
		}
		switch {
		case f.Exists != "" && p.Value == nil:
			b.WriteString("NOT EXISTS (SELECT 1 " + f.Exists + ")")
			return nil
		case f.Exists != "":
			b.WriteString("EXISTS (SELECT 1 " + f.Exists + " AND " + f.Column + " = ?)")
		case p.Value == nil:
			b.WriteString(f.Column + " IS NULL")
			return nil
		default:
			b.WriteString(f.Column + " = ?")
		}
		*args = append(*args, p.Value)
		return nil
	case And:
		return writeBinary(b, args, p.Left, p.Right, "AND", column)
	case Or:
		return writeBinary(b, args, p.Left, p.Right, "OR", column)
	case Not:
		// NULL comparisons count as not matching, so their negation matches.
		b.WriteString("NOT COALESCE(")
		if err := writeSQL(b, args, p.Inner, column); err != nil {
			return err
		}
		b.WriteString(", FALSE)")
		return nil
	default:
		return fmt.Errorf("unsupported predicate %T", p)
	}
}

func writeBinary(b *strings.Builder, args *[]interface{}, left, right Predicate, op string, column ColumnFunc) error {
	b.WriteByte('(')
	if err := writeSQL(b, args, left, column); err != nil {
		return err
	}
	b.WriteString(" " + op + " ")
	if err := writeSQL(b, args, right, column); err != nil {
		return err
	}
	b.WriteByte(')')
	return nil
}
