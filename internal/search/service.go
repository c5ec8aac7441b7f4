package search

import (
	"fmt"
	"sort"
	"sync/atomic"
	"unicode/utf8"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/index"
	"github.com/gcbaptista/go-facet-browser/internal/tokenizer"
	"github.com/gcbaptista/go-facet-browser/internal/typoutil"
	"github.com/gcbaptista/go-facet-browser/services"
	"github.com/gcbaptista/go-facet-browser/store"
)

// Match weights for typo matches, by edit distance.
const (
	oneTypoWeight  = 0.8
	twoTyposWeight = 0.6
)

// maxTypoCandidates bounds how many vocabulary terms a single query token may
// expand to through typo tolerance.
const maxTypoCandidates = 50

// Service answers text queries against an inverted index.
//
// Every query token must match an item for the item to be a hit (AND).
// A token matches by complete word or by prefix on any searchable field and,
// on fuzzy fields only, by one typo for tokens of MinWordSizeFor1Typo runes
// and two typos from MinWordSizeFor2Typos runes. An item's score is the sum
// over tokens of its best match weight.
type Service struct {
	invertedIndex *index.InvertedIndex
	itemStore     *store.ItemStore
	settings      config.SearchSettings
	typoFinder    *typoutil.TypoFinder
	vocabStale    atomic.Bool
}

// NewService creates a new search Service.
func NewService(invIndex *index.InvertedIndex, itemStore *store.ItemStore, settings config.SearchSettings) (*Service, error) {
	if invIndex == nil {
		return nil, fmt.Errorf("inverted index cannot be nil")
	}
	if itemStore == nil {
		return nil, fmt.Errorf("item store cannot be nil")
	}
	s := &Service{
		invertedIndex: invIndex,
		itemStore:     itemStore,
		settings:      settings,
		typoFinder:    typoutil.NewTypoFinder(nil),
	}
	s.vocabStale.Store(true)
	return s, nil
}

// InvalidateVocabulary marks the typo vocabulary as out of date. It is
// rebuilt on the next query.
func (s *Service) InvalidateVocabulary() {
	s.vocabStale.Store(true)
}

// tokenMatch is the best match of one query token in one item.
type tokenMatch struct {
	weight float64
	exact  bool
	typo   bool
}

// Query returns the items matching every token of q, best first. Ties keep
// insertion order. limit <= 0 returns every hit.
func (s *Service) Query(q string, limit int) []services.Hit {
	tokens := uniqueTokens(tokenizer.Tokenize(q))
	if len(tokens) == 0 {
		return []services.Hit{}
	}
	if len(s.settings.FuzzyFields) > 0 && s.vocabStale.CompareAndSwap(true, false) {
		s.refreshVocabulary()
	}

	s.itemStore.Mu.RLock()
	s.invertedIndex.Mu.RLock()
	defer s.itemStore.Mu.RUnlock()
	defer s.invertedIndex.Mu.RUnlock()

	var candidates map[uint32]*services.Hit
	var order []uint32
	for i, token := range tokens {
		matches := s.matchToken(token)
		if i == 0 {
			candidates = make(map[uint32]*services.Hit, len(matches))
			for docID, m := range matches {
				hit := &services.Hit{}
				addMatch(hit, m)
				candidates[docID] = hit
				order = append(order, docID)
			}
			continue
		}
		for docID, hit := range candidates {
			m, ok := matches[docID]
			if !ok {
				delete(candidates, docID)
				continue
			}
			addMatch(hit, m)
		}
		if len(candidates) == 0 {
			return []services.Hit{}
		}
	}

	kept := order[:0]
	for _, docID := range order {
		if _, ok := candidates[docID]; ok {
			kept = append(kept, docID)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		a, b := candidates[kept[i]], candidates[kept[j]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return kept[i] < kept[j]
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}

	hits := make([]services.Hit, 0, len(kept))
	for _, docID := range kept {
		hit := candidates[docID]
		hit.ID = s.itemStore.InternalIDtoExternalID[docID]
		hit.Item = s.itemStore.Items[docID]
		hits = append(hits, *hit)
	}
	return hits
}

// matchToken collects the best match per item for one query token.
// Caller holds the index read lock.
func (s *Service) matchToken(token string) map[uint32]tokenMatch {
	best := make(map[uint32]tokenMatch)
	consider := func(list index.PostingList, fuzzy bool, typoWeight float64) {
		for _, entry := range list {
			if s.settings.IsFuzzy(entry.FieldName) != fuzzy {
				continue
			}
			m := tokenMatch{weight: entry.Score, exact: entry.IsFullWord}
			if typoWeight > 0 {
				if !entry.IsFullWord {
					continue
				}
				m = tokenMatch{weight: typoWeight, typo: true}
			}
			if cur, ok := best[entry.DocID]; !ok || m.weight > cur.weight {
				best[entry.DocID] = m
			}
		}
	}

	consider(s.invertedIndex.Index[token], false, 0)
	if len(s.settings.FuzzyFields) == 0 {
		return best
	}

	folded := tokenizer.Fold(token)
	consider(s.invertedIndex.Index[folded], true, 0)

	maxDistance := 0
	switch n := utf8.RuneCountInString(folded); {
	case n >= s.settings.MinWordSizeFor2Typos:
		maxDistance = 2
	case n >= s.settings.MinWordSizeFor1Typo:
		maxDistance = 1
	}
	for _, typo := range s.typoFinder.Find(folded, maxDistance, maxTypoCandidates) {
		weight := oneTypoWeight
		if typo.Distance > 1 {
			weight = twoTyposWeight
		}
		consider(s.invertedIndex.Index[typo.Term], true, weight)
	}
	return best
}

// refreshVocabulary rebuilds the typo vocabulary from the complete words of
// fuzzy fields.
func (s *Service) refreshVocabulary() {
	s.invertedIndex.Mu.RLock()
	terms := make([]string, 0, len(s.invertedIndex.Index))
	for term, list := range s.invertedIndex.Index {
		for _, entry := range list {
			if entry.IsFullWord && s.settings.IsFuzzy(entry.FieldName) {
				terms = append(terms, term)
				break
			}
		}
	}
	s.invertedIndex.Mu.RUnlock()

	sort.Strings(terms)
	s.typoFinder.UpdateIndexedTerms(terms)
}

func addMatch(hit *services.Hit, m tokenMatch) {
	hit.Score += m.weight
	if m.exact {
		hit.Info.NumberExactWords++
	}
	if m.typo {
		hit.Info.NumTypos++
	}
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
