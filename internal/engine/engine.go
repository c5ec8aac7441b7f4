// Package engine assembles the inverted index, the item store and the
// indexing and search services into the text index the browser queries.
package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/index"
	"github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/internal/indexing"
	"github.com/gcbaptista/go-facet-browser/internal/search"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/services"
	"github.com/gcbaptista/go-facet-browser/store"
)

// TextIndex holds all components and services for the full-text index.
// It implements the services.TextIndex interface.
type TextIndex struct {
	settings      config.SearchSettings
	InvertedIndex *index.InvertedIndex
	ItemStore     *store.ItemStore
	indexer       *indexing.Service
	searcher      *search.Service
}

var _ services.TextIndex = (*TextIndex)(nil)

// NewTextIndex creates an empty text index for settings.
func NewTextIndex(settings config.SearchSettings) (*TextIndex, error) {
	settings.ApplyDefaults()
	if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
		return nil, errors.NewConfigError(conflicts...)
	}

	invIndex := index.NewInvertedIndex()
	itemStore := store.NewItemStore()

	indexerService, err := indexing.NewService(invIndex, itemStore, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}
	searchService, err := search.NewService(invIndex, itemStore, settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	return &TextIndex{
		settings:      settings,
		InvertedIndex: invIndex,
		ItemStore:     itemStore,
		indexer:       indexerService,
		searcher:      searchService,
	}, nil
}

// Settings returns the search settings of this index.
func (t *TextIndex) Settings() config.SearchSettings {
	return t.settings
}

// Clear removes every indexed item.
func (t *TextIndex) Clear() {
	t.indexer.Clear()
	t.searcher.InvalidateVocabulary()
}

// AddDocument indexes a single item, replacing an earlier item with the same id.
func (t *TextIndex) AddDocument(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := t.indexer.AddDocument(item); err != nil {
		return err
	}
	t.searcher.InvalidateVocabulary()
	return nil
}

// Query returns the hits for q, best first.
func (t *TextIndex) Query(ctx context.Context, q string, opts services.QueryOptions) ([]services.Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hits := t.searcher.Query(q, opts.Limit)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return hits, nil
}

// Len returns the number of indexed items.
func (t *TextIndex) Len() int {
	return t.ItemStore.Len()
}

// ProgressFunc receives the number of items processed so far and the total.
type ProgressFunc func(done, total int)

// progressEvery is how many items are indexed between progress reports.
const progressEvery = 500

// Rebuild clears idx and adds every item in order. Items without a usable id
// are skipped with a warning and counted in the returned value. A cancelled
// ctx stops the rebuild and returns ctx's error.
func Rebuild(ctx context.Context, idx services.TextIndex, items []model.Item, progress ProgressFunc) (int, error) {
	idx.Clear()
	skipped := 0
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return skipped, err
		}
		if err := idx.AddDocument(ctx, item); err != nil {
			if ctx.Err() != nil {
				return skipped, ctx.Err()
			}
			log.Printf("Warning: Skipping item at position %d: %v", i, err)
			skipped++
		}
		if progress != nil && ((i+1)%progressEvery == 0 || i+1 == len(items)) {
			progress(i+1, len(items))
		}
	}
	return skipped, nil
}
