package model

import (
	"encoding/json"
	"fmt"
)

// FacetKind declares how a field participates in faceted browsing.
type FacetKind string

const (
	FacetNone    FacetKind = ""        // Field is not facetable
	FacetText    FacetKind = "text"    // Single categorical string value, single-select
	FacetArray   FacetKind = "array"   // Multi-valued categorical field, multi-select (AND)
	FacetNumeric FacetKind = "numeric" // Numeric field, filtered by range
)

// IsValid reports whether k is one of the known facet kinds (including none).
func (k FacetKind) IsValid() bool {
	switch k {
	case FacetNone, FacetText, FacetArray, FacetNumeric:
		return true
	}
	return false
}

// IsCategorical reports whether k is filtered by a set of selected values.
func (k FacetKind) IsCategorical() bool {
	return k == FacetText || k == FacetArray
}

// FacetCounts holds the derived facet data for one field.
// Text and array facets carry value -> occurrence counts; numeric facets carry
// the observed [min, max] range. FacetCounts are recomputed on every change and
// never stored.
type FacetCounts struct {
	Type   FacetKind
	Values map[string]int
	Range  [2]float64
}

// NewValueCounts creates an empty categorical facet for kind.
func NewValueCounts(kind FacetKind) FacetCounts {
	return FacetCounts{Type: kind, Values: make(map[string]int)}
}

// NewRange creates a numeric facet covering [min, max].
func NewRange(min, max float64) FacetCounts {
	return FacetCounts{Type: FacetNumeric, Range: [2]float64{min, max}}
}

// Min returns the lower bound of a numeric facet.
func (f FacetCounts) Min() float64 { return f.Range[0] }

// Max returns the upper bound of a numeric facet.
func (f FacetCounts) Max() float64 { return f.Range[1] }

type facetCountsJSON struct {
	Type   FacetKind       `json:"type"`
	Values json.RawMessage `json:"values"`
}

// MarshalJSON encodes categorical facets as {"type":"array","values":{"a":3}}
// and numeric facets as {"type":"numeric","values":[min,max]}.
func (f FacetCounts) MarshalJSON() ([]byte, error) {
	var values []byte
	var err error
	if f.Type == FacetNumeric {
		values, err = json.Marshal(f.Range)
	} else {
		counts := f.Values
		if counts == nil {
			counts = map[string]int{}
		}
		values, err = json.Marshal(counts)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(facetCountsJSON{Type: f.Type, Values: values})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (f *FacetCounts) UnmarshalJSON(data []byte) error {
	var raw facetCountsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Type = raw.Type
	switch raw.Type {
	case FacetNumeric:
		return json.Unmarshal(raw.Values, &f.Range)
	case FacetText, FacetArray:
		f.Values = make(map[string]int)
		return json.Unmarshal(raw.Values, &f.Values)
	default:
		return fmt.Errorf("unknown facet type '%s'", raw.Type)
	}
}
