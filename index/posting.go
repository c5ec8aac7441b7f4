package index

// Match weights stored in PostingEntry.Score.
const (
	FullWordWeight = 1.0 // Term is a complete word of the field
	PrefixWeight   = 0.5 // Term is only a prefix n-gram of a longer word
)

// PostingEntry records that an item contains a term in one of its fields.
type PostingEntry struct {
	DocID      uint32  // Internal numeric ID, assigned in insertion order
	FieldName  string  // The field where the term was found (e.g., "title")
	Score      float64 // Match weight: FullWordWeight or PrefixWeight
	IsFullWord bool    // True if the term is a complete word, false if it's a generated prefix
}

// PostingList is the list of entries for a single term, ordered by DocID then FieldName.
type PostingList []PostingEntry
