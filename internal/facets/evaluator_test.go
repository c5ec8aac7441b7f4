package facets

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/filters"
	"github.com/gcbaptista/go-facet-browser/model"
)

func testRegistry() *config.Registry {
	return config.MustRegistry([]config.FieldConfig{
		config.NewField("id", config.AsID()),
		config.NewField("tags", config.WithFacet(model.FacetArray)),
		config.NewField("taxon", config.WithFacet(model.FacetText)),
		config.NewField("score", config.WithFacet(model.FacetNumeric)),
		config.NewField("size", config.WithFacet(model.FacetNumeric)),
		config.NewField("title"),
	})
}

func tagItems() []model.Item {
	tags := [][]interface{}{{"a", "b"}, {"b"}, {"a"}, {"c"}, {"a", "b", "c"}}
	items := make([]model.Item, len(tags))
	for i, tg := range tags {
		items[i] = model.Item{"id": fmt.Sprintf("item-%d", i), "tags": tg}
	}
	return items
}

func scoreItems() []model.Item {
	scores := []float64{1, 5, 10, 10, 20}
	sizes := []float64{100, 3, 7, 2, 50}
	items := make([]model.Item, len(scores))
	for i := range scores {
		items[i] = model.Item{"id": fmt.Sprintf("item-%d", i), "score": scores[i], "size": sizes[i]}
	}
	return items
}

func ptr(v float64) *float64 { return &v }

func TestMatchingIndexes_EmptyStateMatchesAll(t *testing.T) {
	reg := testRegistry()
	items := tagItems()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, MatchingIndexes(items, reg, filters.Empty()))
	assert.Equal(t, []int{}, MatchingIndexes(nil, reg, filters.Empty()))
}

func TestTagsScenario(t *testing.T) {
	reg := testRegistry()
	items := tagItems()
	state := filters.ToggleValue(reg, filters.Empty(), "tags", "a")

	result := Evaluate(items, reg, state)

	assert.Equal(t, []int{0, 2, 4}, result.Matching)
	assert.Equal(t, map[string]int{"a": 3, "b": 3, "c": 2}, result.Counts["tags"].Values)
	assert.Equal(t, model.FacetArray, result.Counts["tags"].Type)

	taxon, ok := result.Counts["taxon"]
	require.True(t, ok, "text facets are always present")
	assert.Empty(t, taxon.Values)

	_, ok = result.Counts["score"]
	assert.False(t, ok, "numeric facet without numbers is absent")
}

func TestArrayFilterRequiresAllSelectedValues(t *testing.T) {
	reg := testRegistry()
	items := tagItems()
	state := filters.ToggleValue(reg, filters.Empty(), "tags", "a")
	state = filters.ToggleValue(reg, state, "tags", "b")

	assert.Equal(t, []int{0, 4}, MatchingIndexes(items, reg, state))
}

func TestScoreScenario(t *testing.T) {
	reg := testRegistry()
	items := scoreItems()
	state := filters.SetRange(reg, filters.Empty(), "score", ptr(5), ptr(10))

	result := Evaluate(items, reg, state)

	assert.Equal(t, []int{1, 2, 3}, result.Matching)
	assert.Equal(t, model.NewRange(1, 20), result.Counts["score"], "own filter is lifted")
	assert.Equal(t, model.NewRange(2, 7), result.Counts["size"], "other field sees the score filter")
}

func TestReversedRangeIsNormalised(t *testing.T) {
	reg := testRegistry()
	items := scoreItems()
	state := filters.SetRange(reg, filters.Empty(), "score", ptr(10), ptr(5))

	assert.Equal(t, []int{1, 2, 3}, MatchingIndexes(items, reg, state))
}

func TestOpenEndedRange(t *testing.T) {
	reg := testRegistry()
	items := scoreItems()

	min := filters.SetRange(reg, filters.Empty(), "score", ptr(10), nil)
	assert.Equal(t, []int{2, 3, 4}, MatchingIndexes(items, reg, min))

	max := filters.SetRange(reg, filters.Empty(), "score", nil, ptr(5))
	assert.Equal(t, []int{0, 1}, MatchingIndexes(items, reg, max))
}

func TestRangeRejectsNonNumbers(t *testing.T) {
	reg := testRegistry()
	items := []model.Item{
		{"id": "1", "score": "7"},
		{"id": "2"},
		{"id": "3", "score": 7.0},
	}
	state := filters.SetRange(reg, filters.Empty(), "score", ptr(0), ptr(10))

	assert.Equal(t, []int{2}, MatchingIndexes(items, reg, state))
}

func TestTextFilter(t *testing.T) {
	reg := testRegistry()
	items := []model.Item{
		{"id": "1", "taxon": "Homo sapiens"},
		{"id": "2", "taxon": "Mus musculus"},
		{"id": "3", "taxon": []interface{}{"Homo sapiens"}},
		{"id": "4", "taxon": "Homo sapiens"},
	}
	state := filters.ToggleValue(reg, filters.Empty(), "taxon", "Homo sapiens")

	result := Evaluate(items, reg, state)
	assert.Equal(t, []int{0, 3}, result.Matching)
	assert.Equal(t, map[string]int{"Homo sapiens": 2, "Mus musculus": 1}, result.Counts["taxon"].Values)
}

func TestEmptyFiltersMatchEverything(t *testing.T) {
	reg := testRegistry()
	items := []model.Item{
		{"id": "1", "taxon": "Homo sapiens", "tags": []interface{}{"a"}, "score": 1.0},
		{"id": "2", "taxon": "Mus musculus", "tags": []interface{}{"b"}, "score": 9.0},
	}

	tests := []struct {
		name  string
		field string
		f     filters.Filter
	}{
		{"empty text set", "taxon", filters.NewCategorical()},
		{"empty array set", "tags", filters.NewCategorical()},
		{"unbounded range", "score", filters.NewRange(nil, nil)},
		{"NaN bounds", "score", filters.NewRange(ptr(math.NaN()), ptr(math.NaN()))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := filters.Empty().With(tt.field, tt.f)
			assert.Equal(t, []int{0, 1}, MatchingIndexes(items, reg, state))

			result := Evaluate(items, reg, state)
			assert.Equal(t, []int{0, 1}, result.Matching)
			assert.Equal(t, map[string]int{"Homo sapiens": 1, "Mus musculus": 1}, result.Counts["taxon"].Values)
		})
	}
}

func TestIgnoresFiltersOnUnknownOrMismatchedFields(t *testing.T) {
	reg := testRegistry()
	items := tagItems()

	state := filters.Empty().
		With("missing", filters.NewCategorical("a")).
		With("tags", filters.NewRange(ptr(1), ptr(2)))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, MatchingIndexes(items, reg, state))
}

func TestIdempotence(t *testing.T) {
	reg := testRegistry()
	items := randomItems(rand.New(rand.NewSource(1)), 50)
	state := filters.ToggleValue(reg, filters.Empty(), "tags", "t1")
	state = filters.SetRange(reg, state, "score", ptr(2), ptr(8))

	first := Evaluate(items, reg, state)
	second := Evaluate(items, reg, state)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Matching, MatchingIndexes(items, reg, state))
	assert.Equal(t, first.Counts, FacetCounts(items, reg, state))
}

// rescanCounts computes facet counts the direct way: one full rescan per
// field with that field's filter removed.
func rescanCounts(items []model.Item, reg *config.Registry, state *filters.State) map[string]model.FacetCounts {
	out := make(map[string]model.FacetCounts)
	for _, fc := range reg.FacetFields() {
		acc := newAccumulator(fc.Facet)
		for _, i := range MatchingIndexesExcluding(items, reg, state, fc.Field) {
			acc.add(items[i].Get(fc.Field))
		}
		if counts, ok := acc.result(); ok {
			out[fc.Field] = counts
		}
	}
	return out
}

func TestSelfExclusionMatchesRescan(t *testing.T) {
	reg := testRegistry()
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		items := randomItems(rng, 1+rng.Intn(40))
		state := randomState(rng, reg)

		got := Evaluate(items, reg, state)
		want := rescanCounts(items, reg, state)

		require.Equal(t, want, got.Counts, "round %d state %v", round, state.Fields())
		require.Equal(t, MatchingIndexes(items, reg, state), got.Matching)

		for _, field := range state.Fields() {
			lifted := Evaluate(items, reg, filters.ClearField(state, field))
			require.Equal(t, lifted.Counts[field], got.Counts[field],
				"facet for %s must not reflect its own selection", field)
		}
	}
}

func randomItems(rng *rand.Rand, n int) []model.Item {
	taxa := []string{"human", "mouse", "fly"}
	items := make([]model.Item, n)
	for i := range items {
		item := model.Item{"id": fmt.Sprintf("%d", i)}
		if rng.Intn(5) > 0 {
			var tags []interface{}
			for j := 0; j < rng.Intn(4); j++ {
				tags = append(tags, fmt.Sprintf("t%d", rng.Intn(4)))
			}
			item["tags"] = tags
		}
		if rng.Intn(4) > 0 {
			item["taxon"] = taxa[rng.Intn(len(taxa))]
		}
		if rng.Intn(4) > 0 {
			item["score"] = float64(rng.Intn(10))
		}
		if rng.Intn(3) > 0 {
			item["size"] = float64(rng.Intn(100))
		}
		items[i] = item
	}
	return items
}

func randomState(rng *rand.Rand, reg *config.Registry) *filters.State {
	state := filters.Empty()
	if rng.Intn(2) == 0 {
		state = filters.ToggleValue(reg, state, "tags", fmt.Sprintf("t%d", rng.Intn(4)))
		if rng.Intn(2) == 0 {
			state = filters.ToggleValue(reg, state, "tags", fmt.Sprintf("t%d", rng.Intn(4)))
		}
	}
	if rng.Intn(2) == 0 {
		state = filters.ToggleValue(reg, state, "taxon", []string{"human", "mouse", "fly"}[rng.Intn(3)])
	}
	if rng.Intn(2) == 0 {
		state = filters.SetRange(reg, state, "score", ptr(float64(rng.Intn(10))), ptr(float64(rng.Intn(10))))
	}
	if rng.Intn(3) == 0 {
		state = filters.SetRange(reg, state, "size", nil, ptr(float64(rng.Intn(100))))
	}
	return state
}
