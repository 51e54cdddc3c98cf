package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CanonicalID turns a wire identifier into the form used for storage keys and
// topic names. Strings are trimmed and must be non-blank; numbers must be
// finite and are formatted without exponent or trailing zeros, so 1, 1.0 and
// 1e0 all become "1". Any other type is rejected.
func CanonicalID(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		x = strings.TrimSpace(x)
		return x, x != ""
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return "", false
		}
		return CanonicalID(f)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}
