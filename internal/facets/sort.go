package facets

import (
	"sort"

	"github.com/gcbaptista/go-facet-browser/model"
)

// ValueCount is one entry of a categorical facet.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// SortedValues lists a categorical facet's values by count descending, then
// value ascending. Numeric facets have no values and return nil.
func SortedValues(fc model.FacetCounts) []ValueCount {
	if !fc.Type.IsCategorical() {
		return nil
	}
	out := make([]ValueCount, 0, len(fc.Values))
	for v, c := range fc.Values {
		out = append(out, ValueCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}
