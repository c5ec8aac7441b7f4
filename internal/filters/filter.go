// Package filters holds the active facet filter state and the operations that
// change it. A State is immutable: every mutation returns a new *State, or the
// very same pointer when the operation is a no-op, so pointer equality is a
// valid change check.
package filters

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Type tags the filter variant.
type Type string

const (
	TypeCategorical Type = "categorical" // Set of selected values on a text or array field
	TypeRange       Type = "range"       // Numeric bounds on a numeric field
)

// Filter is a sealed sum type: Categorical or Range. Code that dispatches on
// it uses an exhaustive type switch and panics on anything else.
type Filter interface {
	Type() Type
	sealed()
}

// Categorical selects a set of string values. The zero value is the empty set,
// which is never stored in a State.
type Categorical struct {
	values map[string]struct{}
}

// NewCategorical builds a categorical filter from the given values.
func NewCategorical(values ...string) Categorical {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return Categorical{values: set}
}

func (Categorical) Type() Type { return TypeCategorical }
func (Categorical) sealed()    {}

// Contains reports whether value is selected.
func (c Categorical) Contains(value string) bool {
	_, ok := c.values[value]
	return ok
}

// Len returns the number of selected values.
func (c Categorical) Len() int { return len(c.values) }

// Values returns the selected values sorted.
func (c Categorical) Values() []string {
	out := make([]string, 0, len(c.values))
	for v := range c.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Toggled returns a copy with value's membership flipped.
func (c Categorical) Toggled(value string) Categorical {
	set := make(map[string]struct{}, len(c.values)+1)
	for v := range c.values {
		set[v] = struct{}{}
	}
	if _, ok := set[value]; ok {
		delete(set, value)
	} else {
		set[value] = struct{}{}
	}
	return Categorical{values: set}
}

// IsOnly reports whether exactly value and nothing else is selected.
func (c Categorical) IsOnly(value string) bool {
	return len(c.values) == 1 && c.Contains(value)
}

// Range constrains a numeric field. A nil bound is unconstrained on that side.
type Range struct {
	Min *float64
	Max *float64
}

// NewRange builds a range, swapping the bounds when both are set and reversed.
// A NaN bound is open.
func NewRange(min, max *float64) Range {
	if min != nil && math.IsNaN(*min) {
		min = nil
	}
	if max != nil && math.IsNaN(*max) {
		max = nil
	}
	if min != nil && max != nil && *min > *max {
		min, max = max, min
	}
	return Range{Min: copyBound(min), Max: copyBound(max)}
}

// PointRange is the degenerate range [v, v].
func PointRange(v float64) Range {
	return NewRange(&v, &v)
}

func (Range) Type() Type { return TypeRange }
func (Range) sealed()    {}

// Contains reports whether v satisfies both bounds.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// IsUnbounded reports whether neither bound is set.
func (r Range) IsUnbounded() bool {
	return r.Min == nil && r.Max == nil
}

// IsPoint reports whether the range is exactly [v, v].
func (r Range) IsPoint(v float64) bool {
	return r.Min != nil && r.Max != nil && *r.Min == v && *r.Max == v
}

func copyBound(b *float64) *float64 {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

type filterJSON struct {
	Type   Type     `json:"type"`
	Values []string `json:"values,omitempty"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

func (c Categorical) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type   Type     `json:"type"`
		Values []string `json:"values"`
	}{Type: TypeCategorical, Values: c.Values()})
}

func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type Type     `json:"type"`
		Min  *float64 `json:"min"`
		Max  *float64 `json:"max"`
	}{Type: TypeRange, Min: r.Min, Max: r.Max})
}

// Decode parses the JSON form produced by MarshalJSON back into a Filter.
func Decode(data []byte) (Filter, error) {
	var raw filterJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	switch raw.Type {
	case TypeCategorical:
		return NewCategorical(raw.Values...), nil
	case TypeRange:
		return NewRange(raw.Min, raw.Max), nil
	default:
		return nil, fmt.Errorf("unknown filter type '%s'", raw.Type)
	}
}
