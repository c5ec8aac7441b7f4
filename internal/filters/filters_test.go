package filters

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-facet-browser/model"
)

type kindMap map[string]model.FacetKind

func (k kindMap) FacetKind(field string) model.FacetKind { return k[field] }

var testKinds = kindMap{
	"taxon": model.FacetText,
	"tags":  model.FacetArray,
	"score": model.FacetNumeric,
	"title": model.FacetNone,
}

func ptr(v float64) *float64 { return &v }

func TestToggleValue_Text(t *testing.T) {
	s0 := Empty()

	s1 := ToggleValue(testKinds, s0, "taxon", "Homo sapiens")
	f, ok := s1.Get("taxon")
	require.True(t, ok)
	assert.Equal(t, []string{"Homo sapiens"}, f.(Categorical).Values())

	t.Run("selecting another value replaces", func(t *testing.T) {
		s2 := ToggleValue(testKinds, s1, "taxon", "Mus musculus")
		f, _ := s2.Get("taxon")
		assert.Equal(t, []string{"Mus musculus"}, f.(Categorical).Values())
	})

	t.Run("toggle is its own inverse", func(t *testing.T) {
		s2 := ToggleValue(testKinds, s1, "taxon", "Homo sapiens")
		assert.True(t, s2.IsEmpty())
		assert.Equal(t, s0.Entries(), s2.Entries())
	})

	t.Run("previous state is untouched", func(t *testing.T) {
		assert.True(t, s0.IsEmpty())
		assert.Equal(t, 1, s1.Len())
	})
}

func TestToggleValue_Array(t *testing.T) {
	s := ToggleValue(testKinds, Empty(), "tags", "a")
	s = ToggleValue(testKinds, s, "tags", "b")

	f, ok := s.Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, f.(Categorical).Values())

	s = ToggleValue(testKinds, s, "tags", "a")
	f, _ = s.Get("tags")
	assert.Equal(t, []string{"b"}, f.(Categorical).Values())

	s = ToggleValue(testKinds, s, "tags", "b")
	_, ok = s.Get("tags")
	assert.False(t, ok, "removing the last value must remove the filter")
	assert.Equal(t, 0, s.Len())
}

func TestToggleValue_Numeric(t *testing.T) {
	s := ToggleValue(testKinds, Empty(), "score", "10")
	f, ok := s.Get("score")
	require.True(t, ok)
	r := f.(Range)
	assert.True(t, r.IsPoint(10))

	s = ToggleValue(testKinds, s, "score", " 10 ")
	assert.True(t, s.IsEmpty())

	s = ToggleValue(testKinds, Empty(), "score", "5")
	s = ToggleValue(testKinds, s, "score", "7.5")
	f, _ = s.Get("score")
	assert.True(t, f.(Range).IsPoint(7.5))

	for _, bad := range []string{"", "abc", "NaN", "Inf", "-Infinity"} {
		t.Run("ignores "+bad, func(t *testing.T) {
			before := ToggleValue(testKinds, Empty(), "score", "1")
			after := ToggleValue(testKinds, before, "score", bad)
			assert.Same(t, before, after)
		})
	}
}

func TestToggleValue_NonFacetable(t *testing.T) {
	s := ToggleValue(testKinds, Empty(), "tags", "a")

	assert.Same(t, s, ToggleValue(testKinds, s, "title", "x"))
	assert.Same(t, s, ToggleValue(testKinds, s, "unknown", "x"))
}

func TestSetRange(t *testing.T) {
	t.Run("reversed bounds are swapped", func(t *testing.T) {
		s := SetRange(testKinds, Empty(), "score", ptr(10), ptr(5))
		f, _ := s.Get("score")
		r := f.(Range)
		assert.Equal(t, 5.0, *r.Min)
		assert.Equal(t, 10.0, *r.Max)
		assert.True(t, r.Contains(7))
		assert.False(t, r.Contains(11))
	})

	t.Run("single bound is open ended", func(t *testing.T) {
		s := SetRange(testKinds, Empty(), "score", nil, ptr(3))
		f, _ := s.Get("score")
		r := f.(Range)
		assert.Nil(t, r.Min)
		assert.True(t, r.Contains(-1e9))
		assert.False(t, r.Contains(3.5))
	})

	t.Run("both nil removes the filter", func(t *testing.T) {
		s := SetRange(testKinds, Empty(), "score", ptr(1), ptr(2))
		s = SetRange(testKinds, s, "score", nil, nil)
		assert.True(t, s.IsEmpty())
	})

	t.Run("non-numeric field is a no-op", func(t *testing.T) {
		s := Empty()
		assert.Same(t, s, SetRange(testKinds, s, "tags", ptr(1), ptr(2)))
	})

	t.Run("bounds are copied", func(t *testing.T) {
		min := 1.0
		s := SetRange(testKinds, Empty(), "score", &min, nil)
		min = 100
		f, _ := s.Get("score")
		assert.Equal(t, 1.0, *f.(Range).Min)
	})
}

func TestSetRange_NaNBoundsAreOpen(t *testing.T) {
	nan := math.NaN()

	s := SetRange(testKinds, Empty(), "score", &nan, ptr(3))
	f, ok := s.Get("score")
	require.True(t, ok)
	r := f.(Range)
	assert.Nil(t, r.Min)
	assert.Equal(t, 3.0, *r.Max)

	s = SetRange(testKinds, s, "score", &nan, &nan)
	assert.True(t, s.IsEmpty(), "NaN-only range removes the filter")
}

func TestWith_InertFiltersRemoveField(t *testing.T) {
	s := ToggleValue(testKinds, Empty(), "taxon", "Homo sapiens")
	s = SetRange(testKinds, s, "score", ptr(1), ptr(2))

	s = s.With("taxon", NewCategorical())
	_, ok := s.Get("taxon")
	assert.False(t, ok, "empty value set is no filter")

	s = s.With("score", NewRange(nil, nil))
	assert.True(t, s.IsEmpty(), "unbounded range is no filter")

	empty := Empty()
	assert.Same(t, empty, empty.With("tags", NewCategorical()))
	assert.True(t, Constrains(NewCategorical("a")))
	assert.False(t, Constrains(NewRange(nil, nil)))
}

func TestClearOperations(t *testing.T) {
	s := ToggleValue(testKinds, Empty(), "tags", "a")
	s = SetRange(testKinds, s, "score", ptr(1), ptr(2))
	s = ToggleValue(testKinds, s, "taxon", "x")
	require.Equal(t, 3, s.Len())

	assert.Same(t, s, ClearRange(testKinds, s, "tags"), "ClearRange only applies to numeric fields")
	assert.Equal(t, 2, ClearRange(testKinds, s, "score").Len())

	assert.Same(t, s, ClearField(s, "unknown"))
	cleared := ClearField(s, "tags")
	assert.Equal(t, []string{"score", "taxon"}, cleared.Fields())

	all := ClearAll(s)
	assert.True(t, all.IsEmpty())
	assert.Same(t, all, ClearAll(all))
}

func TestStateJSON(t *testing.T) {
	s := ToggleValue(testKinds, Empty(), "tags", "b")
	s = ToggleValue(testKinds, s, "tags", "a")
	s = SetRange(testKinds, s, "score", ptr(5), nil)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tags": {"type": "categorical", "values": ["a", "b"]},
		"score": {"type": "range", "min": 5, "max": null}
	}`, string(data))

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	f, ok := decoded.Get("score")
	require.True(t, ok)
	assert.Equal(t, 5.0, *f.(Range).Min)

	var dropped State
	require.NoError(t, json.Unmarshal([]byte(`{"tags":{"type":"categorical","values":[]},"score":{"type":"range"}}`), &dropped))
	assert.True(t, dropped.IsEmpty())

	_, err = Decode([]byte(`{"type":"bogus"}`))
	assert.Error(t, err)
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store := NewStore(testKinds)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.ToggleValue("tags", fmt.Sprintf("tag-%d", i))
		}(i)
	}
	wg.Wait()

	snap := store.Snapshot()
	assert.Equal(t, uint64(100), snap.Version)
	f, ok := snap.State.Get("tags")
	require.True(t, ok)
	assert.Equal(t, 100, f.(Categorical).Len())
}

func TestStore_NoOpKeepsVersion(t *testing.T) {
	store := NewStore(testKinds)

	_, changed := store.ClearAll()
	assert.False(t, changed)
	assert.Equal(t, uint64(0), store.Version())

	snap, changed := store.SetRange("score", ptr(3), ptr(1))
	assert.True(t, changed)
	assert.Equal(t, uint64(1), snap.Version)

	_, changed = store.SetRange("title", ptr(3), ptr(1))
	assert.False(t, changed)

	_, changed = store.ClearRange("score")
	assert.True(t, changed)
	_, changed = store.ClearField("score")
	assert.False(t, changed)
	assert.Equal(t, uint64(2), store.Version())
	assert.True(t, store.State().IsEmpty())
}
