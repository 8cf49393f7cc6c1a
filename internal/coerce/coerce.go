// Package coerce converts raw configuration text into typed values.
//
// Scalar conversions never fail: unparsable input is reported as absent so the
// caller can keep its built-in default. Structured (JSON) input is different:
// text that is present but cannot be parsed is returned as an error.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	truthy = map[string]struct{}{"1": {}, "true": {}, "yes": {}, "on": {}}
	falsy  = map[string]struct{}{"0": {}, "false": {}, "no": {}, "off": {}}
)

// Float converts v to a float64. Numeric values pass through; strings are
// trimmed and parsed. NaN, infinities and anything else report false.
func Float(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		text := strings.TrimSpace(n)
		if text == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(text, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Int converts v to an int. Integral floats such as "3.0" are accepted;
// values outside the int range report false.
func Int(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case string:
		text := strings.TrimSpace(n)
		if i, err := strconv.Atoi(text); err == nil {
			return i, true
		}
	}
	f, ok := Float(v)
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
	if !ok || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// OptionalBool reports the boolean spelled by text, or false in the second
// result when text is not a recognized spelling.
func OptionalBool(text string) (bool, bool) {
	key := strings.ToLower(strings.TrimSpace(text))
	if _, ok := truthy[key]; ok {
		return true, true
	}
	if _, ok := falsy[key]; ok {
		return false, true
	}
	return false, false
}

// Bool returns the boolean spelled by text, or def.
func Bool(text string, def bool) bool {
	if v, ok := OptionalBool(text); ok {
		return v
	}
	return def
}

// JSON parses text. Blank text is absent (nil, false, nil); malformed text is an error.
func JSON(text string) (any, bool, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false, nil
	}
	var out any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, false, fmt.Errorf("parse json: %w", err)
	}
	return out, true, nil
}
