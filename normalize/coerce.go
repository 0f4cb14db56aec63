package normalize

import (
	"math"
	"strconv"
)

// Everything in this package operates on freshly decoded JSON, so the
// concrete types are the encoding/json defaults: map[string]any, []any,
// float64, string, bool, nil. Every coercion has a typed zero fallback;
// nothing here returns an error.

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case ScanResult:
		return map[string]any(m), true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func stringVal(v any) string {
	s, _ := v.(string)
	return s
}

// numVal parses a numeric field, tolerating JSON numbers, Go ints and
// numeric strings. Non-finite and unparseable values fall back to zero.
func numVal(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func intVal(v any) int {
	return int(numVal(v))
}

// clampScore keeps a risk score inside the standard 0-100 scale.
func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// firstDefined resolves an ordered alias list against a record,
// first-defined-wins. Empty strings and nils do not count as defined.
func firstDefined(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// stringSlice flattens a scalar-or-sequence field into a string slice.
// Always returns a non-nil slice.
func stringSlice(v any) []string {
	out := make([]string, 0)
	switch s := v.(type) {
	case string:
		if s != "" {
			out = append(out, s)
		}
	case []any:
		for _, item := range s {
			if str := stringVal(item); str != "" {
				out = append(out, str)
			}
		}
	case []string:
		out = append(out, s...)
	}
	return out
}
