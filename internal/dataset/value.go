package dataset

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberLiteral  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)
	leadingNumber  = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)
	dynamicNumeric = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)
)

// maxSafeInteger bounds integers that survive a float64 round trip.
const maxSafeInteger = 1<<53 - 1

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsBlank reports whether v counts as absent for aggregation: nil or "".
func IsBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// AsFloat returns v when it already holds a numeric Go type.
func AsFloat(v any) (float64, bool) {
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
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToNumber converts v the way an arithmetic context would: numbers stay,
// booleans become 1 or 0, whitespace-trimmed numeric text is parsed.
// The second result is false when the value has no numeric reading.
func ToNumber(v any) (float64, bool) {
	if f, ok := AsFloat(v); ok {
		return f, !math.IsNaN(f)
	}
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		switch s {
		case "Infinity", "+Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
		if !numberLiteral.MatchString(s) {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// LeadingFloat reads the longest numeric prefix of v's text form, so "12.5%"
// yields 12.5. Booleans and nulls have no numeric prefix.
func LeadingFloat(v any) (float64, bool) {
	if f, ok := AsFloat(v); ok {
		return f, !math.IsNaN(f)
	}
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	m := leadingNumber.FindString(strings.TrimLeft(s, " \t\n\r\f\v"))
	if m == "" {
		return 0, false
	}
	switch m {
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders a value as text: integral floats without a fraction,
// booleans as true/false, nil as "null".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	if f, ok := AsFloat(v); ok {
		return FormatNumber(f)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// FormatNumber renders f with the shortest representation that round-trips.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	a := math.Abs(f)
	if a != 0 && (a < 1e-6 || a >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Typed converts raw cell text into a typed value: numbers become float64,
// true/false become bool, empty text becomes nil, anything else stays text.
func Typed(s string) any {
	switch s {
	case "":
		return nil
	case "true", "TRUE", "True":
		return true
	case "false", "FALSE", "False":
		return false
	}
	if dynamicNumeric.MatchString(s) {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err == nil && math.Abs(f) <= maxSafeInteger {
			return f
		}
	}
	return s
}
