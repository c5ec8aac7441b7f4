package model

// ResultsDisplayType selects how the result window is presented.
type ResultsDisplayType string

const (
	DisplayList  ResultsDisplayType = "List"
	DisplayTable ResultsDisplayType = "Table"
)

// IsValid reports whether t is a known display type.
func (t ResultsDisplayType) IsValid() bool {
	return t == DisplayList || t == DisplayTable
}

// UserSettings are the per-user presentation preferences that survive restarts.
type UserSettings struct {
	Version            int                `json:"version"`
	VisibleFields      []string           `json:"visible_fields"`
	ResultsDisplayType ResultsDisplayType `json:"results_display_type"`
}

// Clone returns a deep copy so callers never share the VisibleFields slice.
func (s UserSettings) Clone() UserSettings {
	out := s
	out.VisibleFields = append([]string(nil), s.VisibleFields...)
	return out
}
