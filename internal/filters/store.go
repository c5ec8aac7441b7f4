package filters

import (
	"sync/atomic"
)

// Snapshot is a state together with the version it was published under.
type Snapshot struct {
	State   *State
	Version uint64
}

// Store publishes the current State to concurrent readers. Every change is a
// compare-and-swap of the whole snapshot, so readers never see a partially
// applied mutation.
type Store struct {
	kinds   FieldKinds
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding the empty state at version 0.
func NewStore(kinds FieldKinds) *Store {
	st := &Store{kinds: kinds}
	st.current.Store(&Snapshot{State: Empty()})
	return st
}

// Snapshot returns the current state and its version.
func (st *Store) Snapshot() Snapshot {
	return *st.current.Load()
}

// State returns the current state.
func (st *Store) State() *State {
	return st.current.Load().State
}

// Version returns how many changes have been published.
func (st *Store) Version() uint64 {
	return st.current.Load().Version
}

// Update applies fn to the current state until the result can be swapped in
// without losing a concurrent update. It reports whether the state changed.
func (st *Store) Update(fn func(*State) *State) (Snapshot, bool) {
	for {
		old := st.current.Load()
		next := fn(old.State)
		if next == old.State {
			return *old, false
		}
		snap := &Snapshot{State: next, Version: old.Version + 1}
		if st.current.CompareAndSwap(old, snap) {
			return *snap, true
		}
	}
}

// ToggleValue applies ToggleValue to the current state.
func (st *Store) ToggleValue(field, value string) (Snapshot, bool) {
	return st.Update(func(s *State) *State { return ToggleValue(st.kinds, s, field, value) })
}

// SetRange applies SetRange to the current state.
func (st *Store) SetRange(field string, min, max *float64) (Snapshot, bool) {
	return st.Update(func(s *State) *State { return SetRange(st.kinds, s, field, min, max) })
}

// ClearRange applies ClearRange to the current state.
func (st *Store) ClearRange(field string) (Snapshot, bool) {
	return st.Update(func(s *State) *State { return ClearRange(st.kinds, s, field) })
}

// ClearField applies ClearField to the current state.
func (st *Store) ClearField(field string) (Snapshot, bool) {
	return st.Update(func(s *State) *State { return ClearField(s, field) })
}

// ClearAll applies ClearAll to the current state.
func (st *Store) ClearAll() (Snapshot, bool) {
	return st.Update(ClearAll)
}
