package indexing

import (
	"testing"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/index"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/store"
)

// Helper to create SearchSettings for tests
func newTestSettings() config.SearchSettings {
	settings := config.SearchSettings{
		IDField:          "id",
		SearchableFields: []string{"id", "title", "genes"},
		FuzzyFields:      []string{"title"},
		// Genes are matched as whole words only
		FieldsWithoutPrefixSearch: []string{"genes"},
	}
	settings.ApplyDefaults()
	return settings
}

func newTestService(t *testing.T) (*Service, *index.InvertedIndex, *store.ItemStore) {
	t.Helper()
	invIdx := index.NewInvertedIndex()
	itemStore := store.NewItemStore()
	service, err := NewService(invIdx, itemStore, newTestSettings())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return service, invIdx, itemStore
}

func findPosting(list index.PostingList, docID uint32, field string) (index.PostingEntry, bool) {
	for _, entry := range list {
		if entry.DocID == docID && entry.FieldName == field {
			return entry, true
		}
	}
	return index.PostingEntry{}, false
}

func TestNewService(t *testing.T) {
	t.Run("valid initialization", func(t *testing.T) {
		_, err := NewService(index.NewInvertedIndex(), store.NewItemStore(), newTestSettings())
		if err != nil {
			t.Errorf("NewService() error = %v, wantErr nil", err)
		}
	})

	t.Run("nil inverted index", func(t *testing.T) {
		_, err := NewService(nil, store.NewItemStore(), newTestSettings())
		if err == nil {
			t.Error("NewService() with nil invertedIndex, wantErr, got nil")
		}
	})

	t.Run("nil item store", func(t *testing.T) {
		_, err := NewService(index.NewInvertedIndex(), nil, newTestSettings())
		if err == nil {
			t.Error("NewService() with nil itemStore, wantErr, got nil")
		}
	})

	t.Run("missing id field", func(t *testing.T) {
		settings := newTestSettings()
		settings.IDField = ""
		_, err := NewService(index.NewInvertedIndex(), store.NewItemStore(), settings)
		if err == nil {
			t.Error("NewService() without IDField, wantErr, got nil")
		}
	})

	t.Run("nil index map is initialized", func(t *testing.T) {
		invIdx := &index.InvertedIndex{}
		if _, err := NewService(invIdx, store.NewItemStore(), newTestSettings()); err != nil {
			t.Fatalf("NewService() error = %v", err)
		}
		if invIdx.Index == nil {
			t.Error("expected Index map to be initialized")
		}
	})
}

func TestAddDocument_Postings(t *testing.T) {
	service, invIdx, itemStore := newTestService(t)

	item := model.Item{"id": "gomodel:1", "title": "Insulin signaling", "genes": []interface{}{"INS", "INSR"}}
	if err := service.AddDocument(item); err != nil {
		t.Fatalf("AddDocument() error = %v", err)
	}

	if got := itemStore.ExternalIDtoInternalID["gomodel:1"]; got != 0 {
		t.Errorf("internal id = %d, want 0", got)
	}

	tests := []struct {
		term      string
		field     string
		wantFound bool
		wantFull  bool
	}{
		{"insulin", "title", true, true},
		{"insu", "title", true, false},
		{"signaling", "title", true, true},
		{"gomodel", "id", true, true},
		{"gomo", "id", true, false},
		{"1", "id", true, true},
		{"ins", "genes", true, true},
		{"insr", "genes", true, true},
		// Prefix search is disabled for genes
		{"in", "genes", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.term+"/"+tt.field, func(t *testing.T) {
			entry, found := findPosting(invIdx.Index[tt.term], 0, tt.field)
			if found != tt.wantFound {
				t.Fatalf("posting for %q in %s found = %v, want %v", tt.term, tt.field, found, tt.wantFound)
			}
			if !found {
				return
			}
			if entry.IsFullWord != tt.wantFull {
				t.Errorf("IsFullWord = %v, want %v", entry.IsFullWord, tt.wantFull)
			}
			wantScore := index.PrefixWeight
			if tt.wantFull {
				wantScore = index.FullWordWeight
			}
			if entry.Score != wantScore {
				t.Errorf("Score = %v, want %v", entry.Score, wantScore)
			}
		})
	}
}

func TestAddDocument_FoldsFuzzyFields(t *testing.T) {
	service, invIdx, _ := newTestService(t)

	if err := service.AddDocument(model.Item{"id": "Café", "title": "Café metabolism"}); err != nil {
		t.Fatalf("AddDocument() error = %v", err)
	}

	if _, found := findPosting(invIdx.Index["cafe"], 0, "title"); !found {
		t.Error("expected folded term 'cafe' for fuzzy title field")
	}
	if _, found := findPosting(invIdx.Index["café"], 0, "title"); found {
		t.Error("did not expect accented term 'café' for fuzzy title field")
	}
	// The id field is not fuzzy and keeps its accents
	if _, found := findPosting(invIdx.Index["café"], 0, "id"); !found {
		t.Error("expected accented term 'café' for id field")
	}
}

func TestAddDocument_MissingID(t *testing.T) {
	service, invIdx, itemStore := newTestService(t)

	tests := []struct {
		name string
		item model.Item
	}{
		{"no id", model.Item{"title": "Orphan"}},
		{"blank id", model.Item{"id": "  ", "title": "Orphan"}},
		{"object id", model.Item{"id": map[string]interface{}{"a": 1}, "title": "Orphan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := service.AddDocument(tt.item); err == nil {
				t.Error("AddDocument() expected error for item without usable id")
			}
		})
	}

	if itemStore.Len() != 0 {
		t.Errorf("item store length = %d, want 0", itemStore.Len())
	}
	if invIdx.Len() != 0 {
		t.Errorf("index length = %d, want 0", invIdx.Len())
	}
}

func TestAddDocument_NumericID(t *testing.T) {
	service, _, itemStore := newTestService(t)

	if err := service.AddDocument(model.Item{"id": float64(42), "title": "Answer"}); err != nil {
		t.Fatalf("AddDocument() error = %v", err)
	}
	if _, ok := itemStore.ExternalIDtoInternalID["42"]; !ok {
		t.Error("expected numeric id to be stored as '42'")
	}
}

func TestAddDocument_Replace(t *testing.T) {
	service, invIdx, itemStore := newTestService(t)

	items := []model.Item{
		{"id": "a", "title": "Wnt signaling"},
		{"id": "b", "title": "Insulin pathway"},
	}
	for _, item := range items {
		if err := service.AddDocument(item); err != nil {
			t.Fatalf("AddDocument() error = %v", err)
		}
	}

	if err := service.AddDocument(model.Item{"id": "a", "title": "Hedgehog pathway"}); err != nil {
		t.Fatalf("AddDocument() replace error = %v", err)
	}

	if itemStore.Len() != 2 {
		t.Errorf("item store length = %d, want 2", itemStore.Len())
	}
	if got := itemStore.ExternalIDtoInternalID["a"]; got != 0 {
		t.Errorf("replaced item internal id = %d, want 0", got)
	}
	if got := itemStore.Items[0]["title"]; got != "Hedgehog pathway" {
		t.Errorf("stored title = %v, want 'Hedgehog pathway'", got)
	}
	if _, exists := invIdx.Index["wnt"]; exists {
		t.Error("expected terms of the replaced item to be removed")
	}
	if _, found := findPosting(invIdx.Index["hedgehog"], 0, "title"); !found {
		t.Error("expected new terms to be indexed for the replaced item")
	}
	pathway := invIdx.Index["pathway"]
	if len(pathway) != 2 || pathway[0].DocID != 0 || pathway[1].DocID != 1 {
		t.Errorf("pathway postings = %+v, want doc 0 then doc 1", pathway)
	}
}

func TestAddDocument_UnhandledFieldType(t *testing.T) {
	service, _, itemStore := newTestService(t)

	item := model.Item{"id": "x", "title": map[string]interface{}{"nested": true}}
	if err := service.AddDocument(item); err != nil {
		t.Fatalf("AddDocument() error = %v", err)
	}
	if itemStore.Len() != 1 {
		t.Errorf("item store length = %d, want 1", itemStore.Len())
	}
}

func TestClear(t *testing.T) {
	service, invIdx, itemStore := newTestService(t)

	if err := service.AddDocument(model.Item{"id": "a", "title": "Insulin"}); err != nil {
		t.Fatalf("AddDocument() error = %v", err)
	}
	service.Clear()

	if itemStore.Len() != 0 || invIdx.Len() != 0 {
		t.Errorf("after Clear: items = %d, terms = %d, want 0 and 0", itemStore.Len(), invIdx.Len())
	}

	if err := service.AddDocument(model.Item{"id": "b", "title": "Wnt"}); err != nil {
		t.Fatalf("AddDocument() after Clear error = %v", err)
	}
	if got := itemStore.ExternalIDtoInternalID["b"]; got != 0 {
		t.Errorf("internal id after Clear = %d, want 0", got)
	}
}

func TestFieldText(t *testing.T) {
	tests := []struct {
		name   string
		raw    interface{}
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"string", "Insulin", "Insulin", true},
		{"number", float64(3.5), "3.5", true},
		{"string slice", []string{"INS", "INSR"}, "INS INSR", true},
		{"interface slice", []interface{}{"INS", float64(2), nil}, "INS 2", true},
		{"bool", true, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := fieldText(tt.raw)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("fieldText(%v) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
