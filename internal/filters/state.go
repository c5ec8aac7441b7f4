package filters

import (
	"encoding/json"
	"sort"
)

// State maps field names to their active filter. At most one filter per field.
// States are never modified after construction.
type State struct {
	entries map[string]Filter
}

var emptyState = &State{entries: map[string]Filter{}}

// Empty returns the state with no active filters.
func Empty() *State {
	return emptyState
}

// Get returns the filter on field, if any.
func (s *State) Get(field string) (Filter, bool) {
	if s == nil {
		return nil, false
	}
	f, ok := s.entries[field]
	return f, ok
}

// Len returns the number of active filters.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// IsEmpty reports whether no filter is active.
func (s *State) IsEmpty() bool {
	return s.Len() == 0
}

// Fields returns the filtered field names sorted.
func (s *State) Fields() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.entries))
	for field := range s.entries {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Entries returns a copy of the field -> filter map.
func (s *State) Entries() map[string]Filter {
	out := make(map[string]Filter, s.Len())
	if s == nil {
		return out
	}
	for field, f := range s.entries {
		out[field] = f
	}
	return out
}

// With returns a new state where field is filtered by f.
func (s *State) With(field string, f Filter) *State {
	if !Constrains(f) {
		return s.Without(field)
	}
	next := s.Entries()
	next[field] = f
	return &State{entries: next}
}

// Without returns a state without a filter on field. It returns s itself when
// field has no filter.
func (s *State) Without(field string) *State {
	if _, ok := s.Get(field); !ok {
		return s
	}
	next := s.Entries()
	delete(next, field)
	if len(next) == 0 {
		return emptyState
	}
	return &State{entries: next}
}

// MarshalJSON encodes the state as an object keyed by field name.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

// UnmarshalJSON decodes the form produced by MarshalJSON. Empty categorical
// sets and unbounded ranges are dropped.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.entries = make(map[string]Filter, len(raw))
	for field, msg := range raw {
		f, err := Decode(msg)
		if err != nil {
			return err
		}
		if Constrains(f) {
			s.entries[field] = f
		}
	}
	return nil
}

// Constrains reports whether f can exclude anything. An empty value set and
// a range without bounds are equivalent to no filter at all.
func Constrains(f Filter) bool {
	switch v := f.(type) {
	case Categorical:
		return v.Len() > 0
	case Range:
		return !v.IsUnbounded()
	default:
		panic("filters: unknown filter variant")
	}
}
