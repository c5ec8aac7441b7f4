package filters

import (
	"math"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-facet-browser/model"
)

// FieldKinds resolves a field name to its facet kind. *config.Registry
// implements it; unknown fields resolve to model.FacetNone.
type FieldKinds interface {
	FacetKind(field string) model.FacetKind
}

// ToggleValue flips the selection of value on field according to the field's kind:
//   - text: single-select; selecting the selected value clears the field,
//     any other value replaces the selection.
//   - array: toggles membership; an emptied set removes the filter.
//   - numeric: value is parsed as a number and toggled as the range [v, v];
//     unparsable or non-finite values are ignored.
//
// Non-facetable and unknown fields leave the state unchanged.
func ToggleValue(kinds FieldKinds, s *State, field, value string) *State {
	current, _ := s.Get(field)

	switch kinds.FacetKind(field) {
	case model.FacetText:
		if c, ok := current.(Categorical); ok && c.Contains(value) {
			return s.Without(field)
		}
		return s.With(field, NewCategorical(value))

	case model.FacetArray:
		c, _ := current.(Categorical)
		next := c.Toggled(value)
		if next.Len() == 0 {
			return s.Without(field)
		}
		return s.With(field, next)

	case model.FacetNumeric:
		v, ok := parseFinite(value)
		if !ok {
			return s
		}
		if r, ok := current.(Range); ok && r.IsPoint(v) {
			return s.Without(field)
		}
		return s.With(field, PointRange(v))
	}
	return s
}

// SetRange sets the bounds of a numeric field, swapping them when reversed.
// Both bounds nil removes the filter. Non-numeric fields are left alone.
func SetRange(kinds FieldKinds, s *State, field string, min, max *float64) *State {
	if kinds.FacetKind(field) != model.FacetNumeric {
		return s
	}
	r := NewRange(min, max)
	if r.IsUnbounded() {
		return s.Without(field)
	}
	return s.With(field, r)
}

// ClearRange removes the range filter of a numeric field.
func ClearRange(kinds FieldKinds, s *State, field string) *State {
	if kinds.FacetKind(field) != model.FacetNumeric {
		return s
	}
	return s.Without(field)
}

// ClearField removes whatever filter field has.
func ClearField(s *State, field string) *State {
	return s.Without(field)
}

// ClearAll drops every filter.
func ClearAll(s *State) *State {
	if s.IsEmpty() {
		return s
	}
	return Empty()
}

func parseFinite(value string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
