package validation

import (
	"strconv"
	"strings"
	"time"
)

// asFloat coerces scalar shapes LLMs commonly emit for numbers: native
// ints/floats, and strings like "72", "72.5" or "72%".
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(n), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// asMap returns v as a string-keyed mapping.
func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asList returns v as a sequence.
func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// asString returns v as a string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// normalizeTimestamp rewrites a YAML-decoded time.Time back into the
// ISO-8601 string the envelope contract expects. yaml.v3 eagerly resolves
// unquoted ISO timestamps into time.Time values.
func normalizeTimestamp(doc map[string]any) {
	if ts, ok := doc["timestamp"].(time.Time); ok {
		doc["timestamp"] = ts.UTC().Format(time.RFC3339)
	}
}
