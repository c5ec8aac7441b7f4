package facets

import (
	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/filters"
	"github.com/gcbaptista/go-facet-browser/model"
)

// Result is one evaluation of the filter state over a working set.
type Result struct {
	// Matching holds the positions of the items that satisfy every active
	// filter, in working-set order.
	Matching []int
	// Counts holds the facet data per facetable field, each computed with
	// that field's own filter lifted.
	Counts map[string]model.FacetCounts
}

// activeFilter is a state entry that applies to a registry field of the
// matching kind.
type activeFilter struct {
	field  string
	kind   model.FacetKind
	filter filters.Filter
}

// MatchingIndexes returns the positions of items matching every active filter.
// An empty state matches everything.
func MatchingIndexes(items []model.Item, reg *config.Registry, state *filters.State) []int {
	active := activeFilters(reg, state)
	out := make([]int, 0, len(items))
	for i, item := range items {
		if failures, _ := countFailures(item, active, 1); failures == 0 {
			out = append(out, i)
		}
	}
	return out
}

// MatchingIndexesExcluding returns the items reachable for field: those that
// match every active filter except the one on field itself.
func MatchingIndexesExcluding(items []model.Item, reg *config.Registry, state *filters.State, field string) []int {
	return MatchingIndexes(items, reg, state.Without(field))
}

// FacetCounts computes the facet data of every facetable field with
// self-exclusion. Text and array fields are always present; a numeric field is
// present only when a reachable item has a number for it.
func FacetCounts(items []model.Item, reg *config.Registry, state *filters.State) map[string]model.FacetCounts {
	return Evaluate(items, reg, state).Counts
}

// Evaluate computes matching indexes and facet counts in one scan.
//
// An item that fails no active filter is reachable for every field. An item
// that fails exactly one filter, on field G, is reachable only for G, since
// lifting G's filter is the only way it can count. Items failing two or more
// filters are reachable for no field.
func Evaluate(items []model.Item, reg *config.Registry, state *filters.State) Result {
	active := activeFilters(reg, state)
	facetFields := reg.FacetFields()

	acc := make(map[string]*accumulator, len(facetFields))
	for _, fc := range facetFields {
		acc[fc.Field] = newAccumulator(fc.Facet)
	}

	result := Result{Matching: make([]int, 0, len(items))}
	for i, item := range items {
		failures, failed := countFailures(item, active, 2)
		switch failures {
		case 0:
			result.Matching = append(result.Matching, i)
			for _, fc := range facetFields {
				acc[fc.Field].add(item.Get(fc.Field))
			}
		case 1:
			acc[failed.field].add(item.Get(failed.field))
		}
	}

	result.Counts = make(map[string]model.FacetCounts, len(facetFields))
	for _, fc := range facetFields {
		if counts, ok := acc[fc.Field].result(); ok {
			result.Counts[fc.Field] = counts
		}
	}
	return result
}

// activeFilters keeps the state entries that target a facetable registry field
// with a compatible variant. Anything else is ignored.
func activeFilters(reg *config.Registry, state *filters.State) []activeFilter {
	var out []activeFilter
	for _, field := range state.Fields() {
		f, _ := state.Get(field)
		kind := reg.FacetKind(field)
		if !filters.Constrains(f) || !compatible(kind, f) {
			continue
		}
		out = append(out, activeFilter{field: field, kind: kind, filter: f})
	}
	return out
}

func compatible(kind model.FacetKind, f filters.Filter) bool {
	switch f.(type) {
	case filters.Categorical:
		return kind.IsCategorical()
	case filters.Range:
		return kind == model.FacetNumeric
	default:
		panic("facets: unknown filter variant")
	}
}

// countFailures counts the active filters item fails, stopping at limit.
// The second result is the last failed filter.
func countFailures(item model.Item, active []activeFilter, limit int) (int, activeFilter) {
	failures := 0
	var failed activeFilter
	for _, a := range active {
		if matches(item, a) {
			continue
		}
		failures++
		failed = a
		if failures >= limit {
			break
		}
	}
	return failures, failed
}

func matches(item model.Item, a activeFilter) bool {
	raw := item.Get(a.field)
	switch f := a.filter.(type) {
	case filters.Categorical:
		values := ExtractValues(raw, a.kind)
		if a.kind == model.FacetText {
			return len(values) == 1 && f.Contains(values[0])
		}
		for _, selected := range f.Values() {
			if !containsString(values, selected) {
				return false
			}
		}
		return true
	case filters.Range:
		v, ok := NumericValue(raw)
		return ok && f.Contains(v)
	default:
		panic("facets: unknown filter variant")
	}
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

type accumulator struct {
	kind     model.FacetKind
	counts   map[string]int
	min, max float64
	seen     bool
}

func newAccumulator(kind model.FacetKind) *accumulator {
	a := &accumulator{kind: kind}
	if kind.IsCategorical() {
		a.counts = make(map[string]int)
	}
	return a
}

func (a *accumulator) add(raw interface{}) {
	if a.kind != model.FacetNumeric {
		for _, v := range ExtractValues(raw, a.kind) {
			a.counts[v]++
		}
		return
	}
	v, ok := NumericValue(raw)
	if !ok {
		return
	}
	if !a.seen {
		a.min, a.max, a.seen = v, v, true
		return
	}
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *accumulator) result() (model.FacetCounts, bool) {
	if a.kind != model.FacetNumeric {
		return model.FacetCounts{Type: a.kind, Values: a.counts}, true
	}
	if !a.seen {
		return model.FacetCounts{}, false
	}
	return model.NewRange(a.min, a.max), true
}
