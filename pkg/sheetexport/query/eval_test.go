package query

import "reflect"

// Eval reports whether the record described by lookup matches p.
// A nil predicate matches everything. Missing fields never match Eq.
func Eval(p Predicate, lookup func(field string) (interface{}, bool)) bool {
	switch p := p.(type) {
	case nil:
		return true
	case Eq:
		v, ok := lookup(p.Field)
		if !ok {
			return false
		}
		return Equal(v, p.Value)
	case And:
		return Eval(p.Left, lookup) && Eval(p.Right, lookup)
	case Or:
		return Eval(p.Left, lookup) || Eval(p.Right, lookup)
	case Not:
		return !Eval(p.Inner, lookup)
	default:
		return false
	}
}

// Equal compares two stored or literal values. Numbers compare by value
// regardless of their Go type, booleans compare equal to 1 and 0, and byte
// slices compare as strings.
func Equal(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if sa, ok := toString(a); ok {
		if sb, ok := toString(b); ok {
			return sa == sb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	}
	return "", false
}
