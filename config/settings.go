// Package config provides configuration structures for the facet browser.
// It defines the field registry, text search settings and the application
// configuration loaded from TOML.
package config

import (
	"strings"
)

// SearchSettings configures the full-text index built over the dataset.
//
// FuzzyFields are the subset of searchable fields where typo tolerance and
// diacritic folding apply; every other searchable field is matched exactly or
// by prefix only.
type SearchSettings struct {
	IDField                   string   `json:"id_field" toml:"id_field"`                                         // Field holding the unique item id
	SearchableFields          []string `json:"searchable_fields" toml:"searchable_fields"`                       // Fields that can be searched, in priority order
	FuzzyFields               []string `json:"fuzzy_fields" toml:"fuzzy_fields"`                                 // Fields with typo tolerance. Must be in SearchableFields.
	MinWordSizeFor1Typo       int      `json:"min_word_size_for_1_typo" toml:"min_word_size_for_1_typo"`         // Minimum word length to allow 1 typo (e.g., 4)
	MinWordSizeFor2Typos      int      `json:"min_word_size_for_2_typos" toml:"min_word_size_for_2_typos"`       // Minimum word length to allow 2 typos (e.g., 7)
	FieldsWithoutPrefixSearch []string `json:"fields_without_prefix_search" toml:"fields_without_prefix_search"` // Fields for which only whole words are indexed. Must be in SearchableFields.
}

// ValidateFieldNames validates field names for basic requirements.
func (settings *SearchSettings) ValidateFieldNames() []string {
	var conflicts []string

	// Check for duplicate field names within each category
	conflicts = append(conflicts, checkDuplicates("searchable_fields", settings.SearchableFields)...)
	conflicts = append(conflicts, checkDuplicates("fuzzy_fields", settings.FuzzyFields)...)
	conflicts = append(conflicts, checkDuplicates("fields_without_prefix_search", settings.FieldsWithoutPrefixSearch)...)

	// Validate field references across configurations
	conflicts = append(conflicts, settings.validateFieldReferences()...)

	if strings.TrimSpace(settings.IDField) == "" {
		conflicts = append(conflicts, "id_field cannot be empty")
	}

	allFields := make([]string, 0)
	allFields = append(allFields, settings.SearchableFields...)
	allFields = append(allFields, settings.FuzzyFields...)
	allFields = append(allFields, settings.FieldsWithoutPrefixSearch...)
	for _, field := range allFields {
		if strings.TrimSpace(field) == "" {
			conflicts = append(conflicts, "Field name cannot be empty or whitespace-only")
		}
	}

	return conflicts
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}

// validateFieldReferences validates that field references across configurations are valid
func (settings *SearchSettings) validateFieldReferences() []string {
	var errors []string

	searchableFieldsSet := make(map[string]bool)
	for _, field := range settings.SearchableFields {
		searchableFieldsSet[field] = true
	}

	for _, field := range settings.FuzzyFields {
		if !searchableFieldsSet[field] {
			errors = append(errors, "Field '"+field+"' in fuzzy_fields is not in searchable_fields")
		}
	}

	for _, field := range settings.FieldsWithoutPrefixSearch {
		if !searchableFieldsSet[field] {
			errors = append(errors, "Field '"+field+"' in fields_without_prefix_search is not in searchable_fields")
		}
	}

	if settings.MinWordSizeFor1Typo > 0 && settings.MinWordSizeFor2Typos > 0 &&
		settings.MinWordSizeFor2Typos <= settings.MinWordSizeFor1Typo {
		errors = append(errors, "min_word_size_for_2_typos must be greater than min_word_size_for_1_typo")
	}

	return errors
}

// IsFuzzy reports whether typo tolerance applies to field.
func (settings *SearchSettings) IsFuzzy(field string) bool {
	for _, f := range settings.FuzzyFields {
		if f == field {
			return true
		}
	}
	return false
}

// HasPrefixSearch reports whether prefix n-grams are indexed for field.
func (settings *SearchSettings) HasPrefixSearch(field string) bool {
	for _, f := range settings.FieldsWithoutPrefixSearch {
		if f == field {
			return false
		}
	}
	return true
}

// ApplyDefaults applies default values to the search settings
func (settings *SearchSettings) ApplyDefaults() {
	if settings.MinWordSizeFor1Typo == 0 {
		settings.MinWordSizeFor1Typo = 4
	}
	if settings.MinWordSizeFor2Typos == 0 {
		settings.MinWordSizeFor2Typos = 7
	}

	// Ensure MinWordSizeFor2Typos is larger than MinWordSizeFor1Typo
	if settings.MinWordSizeFor2Typos <= settings.MinWordSizeFor1Typo {
		settings.MinWordSizeFor2Typos = settings.MinWordSizeFor1Typo + 1
	}

	// Initialize empty slices if nil to prevent nil pointer issues
	if settings.SearchableFields == nil {
		settings.SearchableFields = []string{}
	}
	if settings.FuzzyFields == nil {
		settings.FuzzyFields = []string{}
	}
	if settings.FieldsWithoutPrefixSearch == nil {
		settings.FieldsWithoutPrefixSearch = []string{}
	}
}
