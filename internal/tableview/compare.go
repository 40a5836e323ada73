package tableview

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// compareNullsLast orders a and b, putting nil values after everything else
// whatever the direction.
func compareNullsLast(a, b any, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	c := compareValues(a, b)
	if desc {
		return -c
	}
	return c
}

// compareValues uses the natural ordering of both values when they share a
// kind, and falls back to comparing their string forms.
func compareValues(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	switch va := a.(type) {
	case string:
		if vb, ok := b.(string); ok {
			return cmp.Compare(va, vb)
		}
	case bool:
		if vb, ok := b.(bool); ok {
			switch {
			case va == vb:
				return 0
			case !va:
				return -1
			default:
				return 1
			}
		}
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	}
	return cmp.Compare(toString(a), toString(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.DateOnly)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// isFalsy reports values that never match a search: nil, empty strings,
// zeros, false and the zero time.
func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	if f, ok := toFloat(v); ok {
		return f == 0
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	case time.Time:
		return t.IsZero()
	}
	return false
}

// matches reports whether v's string form contains the lowercased term.
func matches(v any, term string) bool {
	if isFalsy(v) {
		return false
	}
	return strings.Contains(strings.ToLower(toString(v)), term)
}
