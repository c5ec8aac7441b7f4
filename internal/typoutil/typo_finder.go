package typoutil

import (
	"log"
	"strconv"
	"sync"
	"time"
)

// Match is a vocabulary term found within the allowed distance of a query term.
type Match struct {
	Term     string
	Distance int
}

// TypoFinder searches a vocabulary of indexed words for near matches, with a
// result cache and a time budget per lookup.
type TypoFinder struct {
	mu    sync.RWMutex
	terms []string

	cache        map[string][]Match
	maxCacheSize int
	timeLimit    time.Duration
}

// NewTypoFinder creates a typo finder over terms.
func NewTypoFinder(terms []string) *TypoFinder {
	tf := &TypoFinder{
		maxCacheSize: 1000,
		timeLimit:    50 * time.Millisecond,
	}
	tf.UpdateIndexedTerms(terms)
	return tf
}

// UpdateIndexedTerms replaces the vocabulary and drops the cache.
func (tf *TypoFinder) UpdateIndexedTerms(terms []string) {
	copied := make([]string, len(terms))
	copy(copied, terms)

	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.terms = copied
	tf.cache = make(map[string][]Match)
}

// Len returns the vocabulary size.
func (tf *TypoFinder) Len() int {
	tf.mu.RLock()
	defer tf.mu.RUnlock()
	return len(tf.terms)
}

// Find returns vocabulary terms at distance 1..maxDistance from term, in
// vocabulary order. The scan stops after maxResults matches (0 = no limit) or
// when the time budget is spent.
func (tf *TypoFinder) Find(term string, maxDistance int, maxResults int) []Match {
	if maxDistance <= 0 || term == "" {
		return nil
	}

	cacheKey := term + "\x00" + strconv.Itoa(maxDistance)
	tf.mu.RLock()
	cached, ok := tf.cache[cacheKey]
	terms := tf.terms
	tf.mu.RUnlock()
	if ok {
		return truncate(cached, maxResults)
	}

	matches := tf.scan(terms, term, maxDistance, maxResults)

	tf.mu.Lock()
	if len(tf.cache) < tf.maxCacheSize {
		tf.cache[cacheKey] = matches
	}
	tf.mu.Unlock()

	return matches
}

func (tf *TypoFinder) scan(terms []string, term string, maxDistance, maxResults int) []Match {
	query := []rune(term)
	var matches []Match
	start := time.Now()

	for i, candidate := range terms {
		if i%256 == 0 && time.Since(start) >= tf.timeLimit {
			log.Printf("Warning: Typo search time limit reached (%s) - found %d matches, %d terms unchecked (term='%s', distance=%d)",
				tf.timeLimit, len(matches), len(terms)-i, term, maxDistance)
			break
		}
		if candidate == term {
			continue
		}
		dist := distanceWithLimit(query, []rune(candidate), maxDistance)
		if dist > 0 && dist <= maxDistance {
			matches = append(matches, Match{Term: candidate, Distance: dist})
			if maxResults > 0 && len(matches) >= maxResults {
				break
			}
		}
	}
	return matches
}

func truncate(matches []Match, maxResults int) []Match {
	if maxResults > 0 && len(matches) > maxResults {
		return matches[:maxResults]
	}
	return matches
}
