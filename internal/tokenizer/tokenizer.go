// Package tokenizer splits field text and queries into searchable terms.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Tokenize case-folds text and splits it on every rune that is neither a
// letter nor a digit.
func Tokenize(text string) []string {
	folded := cases.Fold().String(text)
	split := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(split)) // Initialize as empty slice, not nil
	tokens = append(tokens, split...)
	return tokens
}

// Fold strips diacritics: "Müller" becomes "Muller". Text that cannot be
// transformed is returned unchanged.
func Fold(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return folded
}

// GeneratePrefixNGrams creates the prefixes of a token from one rune up to
// the token itself. For "search": "s", "se", "sea", "sear", "searc", "search".
func GeneratePrefixNGrams(token string) []string {
	r := []rune(token)
	ngrams := make([]string, len(r))
	for i := 1; i <= len(r); i++ {
		ngrams[i-1] = string(r[:i])
	}
	return ngrams
}

// Term is an indexed term and whether it is a complete word.
type Term struct {
	Text       string
	IsFullWord bool
}

// Terms tokenizes text into distinct terms. With prefixes set, every proper
// prefix of each word is added as a non-full-word term unless the same text
// also occurs as a full word.
func Terms(text string, prefixes bool) []Term {
	tokens := Tokenize(text)

	full := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		full[token] = struct{}{}
	}

	result := make([]Term, 0, len(tokens))
	seen := make(map[string]struct{})
	add := func(text string) {
		if _, ok := seen[text]; ok {
			return
		}
		seen[text] = struct{}{}
		_, isFull := full[text]
		result = append(result, Term{Text: text, IsFullWord: isFull})
	}

	for _, token := range tokens {
		add(token)
		if !prefixes {
			continue
		}
		for _, ngram := range GeneratePrefixNGrams(token) {
			add(ngram)
		}
	}
	return result
}
