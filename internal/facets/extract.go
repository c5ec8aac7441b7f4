// Package facets computes which items match the active filters and the facet
// counts shown next to each filter control.
package facets

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-facet-browser/model"
)

// ExtractValues maps a raw field value to the string tokens it contributes
// to a facet of the given kind. Every matching and counting path goes through
// this function.
//
//   - array: the distinct stringified elements, in first-seen order
//   - text: the string itself
//   - numeric: the number formatted like JavaScript's String(n)
//
// Values of the wrong type (and nil) yield nothing.
func ExtractValues(raw interface{}, kind model.FacetKind) []string {
	if raw == nil {
		return nil
	}
	switch kind {
	case model.FacetArray:
		elems, ok := asSlice(raw)
		if !ok {
			return nil
		}
		out := make([]string, 0, len(elems))
		seen := make(map[string]struct{}, len(elems))
		for _, e := range elems {
			s := Stringify(e)
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
		return out
	case model.FacetText:
		if s, ok := raw.(string); ok {
			return []string{s}
		}
	case model.FacetNumeric:
		if v, ok := NumericValue(raw); ok {
			return []string{FormatNumber(v)}
		}
	}
	return nil
}

// NumericValue is the numeric coercion used by range filters and numeric
// facets. Only actual numbers qualify; numeric strings do not, and NaN is
// treated as missing.
func NumericValue(raw interface{}) (float64, bool) {
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int8:
		v = float64(n)
	case int16:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case uint:
		v = float64(n)
	case uint8:
		v = float64(n)
	case uint16:
		v = float64(n)
	case uint32:
		v = float64(n)
	case uint64:
		v = float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v = f
	default:
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Stringify renders a decoded JSON value the way JavaScript's String() does.
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case []interface{}:
		parts := make([]string, len(x))
		for i, e := range x {
			if e != nil {
				parts[i] = Stringify(e)
			}
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(x, ",")
	case map[string]interface{}:
		return "[object Object]"
	}
	if n, ok := NumericValue(v); ok {
		return FormatNumber(n)
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return "NaN"
	}
	return "[object Object]"
}

// FormatNumber formats v like JavaScript's Number.prototype.toString:
// integers have no fraction, and exponents are used outside [1e-6, 1e21).
func FormatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}
	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[0]
	digits := strings.TrimLeft(exp[1:], "0")
	return mantissa + "e" + string(sign) + digits
}

func asSlice(raw interface{}) ([]interface{}, bool) {
	switch x := raw.(type) {
	case []interface{}:
		return x, true
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, true
	case []int:
		out := make([]interface{}, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out, true
	}
	return nil, false
}
