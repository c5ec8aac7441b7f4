// Package index holds the inverted index used by the full-text search engine.
package index

import (
	"sort"
	"sync"
)

// InvertedIndex maps a term (token or prefix n-gram) to the items containing it.
// Callers hold Mu while reading or writing Index.
type InvertedIndex struct {
	Mu    sync.RWMutex
	Index map[string]PostingList
}

// NewInvertedIndex creates an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{Index: make(map[string]PostingList)}
}

// AddUnsafe records entry under term, replacing an existing entry for the
// same (DocID, FieldName) when the new one scores higher. Caller holds Mu.
func (ii *InvertedIndex) AddUnsafe(term string, entry PostingEntry) {
	list := ii.Index[term]
	i := sort.Search(len(list), func(i int) bool {
		if list[i].DocID != entry.DocID {
			return list[i].DocID > entry.DocID
		}
		return list[i].FieldName >= entry.FieldName
	})
	if i < len(list) && list[i].DocID == entry.DocID && list[i].FieldName == entry.FieldName {
		if entry.Score > list[i].Score {
			list[i] = entry
		}
		return
	}
	list = append(list, PostingEntry{})
	copy(list[i+1:], list[i:])
	list[i] = entry
	ii.Index[term] = list
}

// RemoveDocUnsafe drops every posting of docID under the given terms. Terms
// left without postings are deleted. Caller holds Mu.
func (ii *InvertedIndex) RemoveDocUnsafe(docID uint32, terms []string) {
	for _, term := range terms {
		list, ok := ii.Index[term]
		if !ok {
			continue
		}
		kept := list[:0]
		for _, entry := range list {
			if entry.DocID != docID {
				kept = append(kept, entry)
			}
		}
		if len(kept) == 0 {
			delete(ii.Index, term)
		} else {
			ii.Index[term] = kept
		}
	}
}

// Reset empties the index.
func (ii *InvertedIndex) Reset() {
	ii.Mu.Lock()
	defer ii.Mu.Unlock()
	ii.Index = make(map[string]PostingList)
}

// Len returns the number of distinct terms.
func (ii *InvertedIndex) Len() int {
	ii.Mu.RLock()
	defer ii.Mu.RUnlock()
	return len(ii.Index)
}
