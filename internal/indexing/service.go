package indexing

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/index"
	"github.com/gcbaptista/go-facet-browser/internal/tokenizer"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/store"
)

// Service writes items into the inverted index and the item store.
type Service struct {
	invertedIndex *index.InvertedIndex
	itemStore     *store.ItemStore
	settings      config.SearchSettings
}

// NewService creates a new indexing Service.
func NewService(invertedIndex *index.InvertedIndex, itemStore *store.ItemStore, settings config.SearchSettings) (*Service, error) {
	if invertedIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if itemStore == nil {
		return nil, fmt.Errorf("item store cannot be nil")
	}
	if settings.IDField == "" {
		return nil, fmt.Errorf("search settings must name an id field")
	}
	if invertedIndex.Index == nil {
		invertedIndex.Index = make(map[string]index.PostingList)
	}
	return &Service{
		invertedIndex: invertedIndex,
		itemStore:     itemStore,
		settings:      settings,
	}, nil
}

// AddDocument indexes item under its id. An item with an id that is already
// indexed replaces the earlier one.
func (s *Service) AddDocument(item model.Item) error {
	id, ok := item.GetID(s.settings.IDField)
	if !ok {
		return fmt.Errorf("item has no usable '%s' value", s.settings.IDField)
	}

	s.itemStore.Mu.Lock()
	s.invertedIndex.Mu.Lock()
	defer s.itemStore.Mu.Unlock()
	defer s.invertedIndex.Mu.Unlock()

	internalID, old := s.itemStore.PutUnsafe(id, item)
	if old != nil {
		var oldTerms []string
		for _, field := range s.settings.SearchableFields {
			for _, term := range s.fieldTerms(old, field) {
				oldTerms = append(oldTerms, term.Text)
			}
		}
		s.invertedIndex.RemoveDocUnsafe(internalID, oldTerms)
	}

	for _, field := range s.settings.SearchableFields {
		for _, term := range s.fieldTerms(item, field) {
			weight := index.PrefixWeight
			if term.IsFullWord {
				weight = index.FullWordWeight
			}
			s.invertedIndex.AddUnsafe(term.Text, index.PostingEntry{
				DocID:      internalID,
				FieldName:  field,
				Score:      weight,
				IsFullWord: term.IsFullWord,
			})
		}
	}
	return nil
}

// Clear removes every item and term.
func (s *Service) Clear() {
	s.itemStore.Reset()
	s.invertedIndex.Reset()
}

// fieldTerms returns the terms indexed for one field of item. Fuzzy fields
// are folded so that accented and plain spellings meet.
func (s *Service) fieldTerms(item model.Item, field string) []tokenizer.Term {
	text, ok := fieldText(item.Get(field))
	if !ok {
		if raw := item.Get(field); raw != nil {
			log.Printf("Warning: Searchable field '%s' has unhandled type %T, skipping.", field, raw)
		}
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if s.settings.IsFuzzy(field) {
		text = tokenizer.Fold(text)
	}
	return tokenizer.Terms(text, s.settings.HasPrefixSearch(field))
}

// fieldText flattens a raw value into searchable text.
func fieldText(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []string:
		return strings.Join(v, " "), true
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, elem := range v {
			if text, ok := fieldText(elem); ok {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}
