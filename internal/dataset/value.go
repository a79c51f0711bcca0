package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Value is a single cell: nil, string, int64, float64 or bool.
type Value = any

// IsNull reports whether v is a missing value. NaN counts as missing.
func IsNull(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// Format renders v for display and CSV output. Nulls render as "".
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Same reports whether a and b hold the same type and value.
func Same(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	return a == b
}

// Key returns a string identifying the row's values for deduplication and
// grouping. Numbers compare by value, so int64(5) and float64(5) share a key.
func Key(values ...Value) string {
	var b strings.Builder
	for _, v := range values {
		var tag byte
		var s string
		switch x := v.(type) {
		case nil:
			tag = 'z'
		case string:
			tag, s = 's', x
		case int64:
			tag, s = 'n', strconv.FormatInt(x, 10)
		case int:
			tag, s = 'n', strconv.Itoa(x)
		case float64:
			switch {
			case math.IsNaN(x):
				tag = 'z'
			case x == math.Trunc(x) && math.Abs(x) < 1<<53:
				tag, s = 'n', strconv.FormatInt(int64(x), 10)
			default:
				tag, s = 'n', strconv.FormatFloat(x, 'g', -1, 64)
			}
		case bool:
			tag, s = 'b', strconv.FormatBool(x)
		default:
			tag = '?'
		}
		b.WriteByte(tag)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}
