// Package store keeps the items added to the full-text index.
package store

import (
	"sync"

	"github.com/gcbaptista/go-facet-browser/model"
)

// ItemStore maps external item ids to internal ids and keeps the stored
// items for hit enrichment. Internal ids grow with insertion order; an item
// re-added under an existing id keeps its original position.
// Callers hold Mu while touching the maps.
type ItemStore struct {
	Mu                     sync.RWMutex
	Items                  map[uint32]model.Item // Internal ID to full item
	ExternalIDtoInternalID map[string]uint32     // Item id to internal ID
	InternalIDtoExternalID map[uint32]string
	NextID                 uint32
}

// NewItemStore creates an empty store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		Items:                  make(map[uint32]model.Item),
		ExternalIDtoInternalID: make(map[string]uint32),
		InternalIDtoExternalID: make(map[uint32]string),
	}
}

// PutUnsafe stores item under externalID and returns its internal id and the
// item it replaced, if any. Caller holds Mu.
func (s *ItemStore) PutUnsafe(externalID string, item model.Item) (uint32, model.Item) {
	if internalID, exists := s.ExternalIDtoInternalID[externalID]; exists {
		old := s.Items[internalID]
		s.Items[internalID] = item
		return internalID, old
	}
	internalID := s.NextID
	s.NextID++
	s.ExternalIDtoInternalID[externalID] = internalID
	s.InternalIDtoExternalID[internalID] = externalID
	s.Items[internalID] = item
	return internalID, nil
}

// Reset empties the store.
func (s *ItemStore) Reset() {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	s.Items = make(map[uint32]model.Item)
	s.ExternalIDtoInternalID = make(map[string]uint32)
	s.InternalIDtoExternalID = make(map[uint32]string)
	s.NextID = 0
}

// Len returns the number of stored items.
func (s *ItemStore) Len() int {
	s.Mu.RLock()
	defer s.Mu.RUnlock()
	return len(s.Items)
}
