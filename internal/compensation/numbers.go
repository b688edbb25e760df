package compensation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// AsFloat converts the loosely typed numbers found in decoded JSON documents.
// Strings are accepted when they hold a plain or dollar-formatted amount
// ("8000", "$8,000", "8k").
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case float32:
		return finite(float64(n))
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		return parseMoney(n)
	}
	return 0, false
}

// parseMoney reads a single dollar amount. A "k" suffix multiplies by 1000.
func parseMoney(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, false
	}
	scale := 1.0
	if strings.HasSuffix(s, "k") {
		scale = 1000
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f * scale)
}

// parseNumber parses a regexp capture that may contain thousands separators.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
