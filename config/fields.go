package config

import (
	"github.com/gcbaptista/go-facet-browser/model"
)

// Render hints understood by presentation layers (terminal view, web clients).
// A hint is purely cosmetic; the facet engine never looks at it.
const (
	RenderDefault         = ""                 // value as string, "N/A" when absent
	RenderJoin            = "join"             // array values joined with ", "
	RenderUntitled        = "untitled"         // empty strings shown as "Untitled"
	RenderBioregistryLink = "bioregistry_link" // CURIE linked through bioregistry.io
)

// FieldConfig describes one item field: whether it is the identity field,
// whether it takes part in text search, and whether (and how) it is facetable.
type FieldConfig struct {
	Field          string          `json:"field"`
	Label          string          `json:"label"`
	IsID           bool            `json:"is_id"`
	Searchable     bool            `json:"searchable"`
	SearchFuzzy    bool            `json:"search_fuzzy"`
	Facet          model.FacetKind `json:"facet,omitempty"`
	FacetHelp      string          `json:"facet_help,omitempty"`
	DefaultVisible bool            `json:"default_visible"`
	Render         string          `json:"render,omitempty"`
}

// FieldOption customizes a FieldConfig built by NewField.
type FieldOption func(*FieldConfig)

// NewField returns a FieldConfig with the defaults applied: the label is the
// field name, the field is visible by default and everything else is off.
func NewField(field string, opts ...FieldOption) FieldConfig {
	fc := FieldConfig{
		Field:          field,
		Label:          field,
		DefaultVisible: true,
	}
	for _, opt := range opts {
		opt(&fc)
	}
	return fc
}

// WithLabel sets the display label.
func WithLabel(label string) FieldOption {
	return func(fc *FieldConfig) { fc.Label = label }
}

// AsID marks the field as the item identity field.
func AsID() FieldOption {
	return func(fc *FieldConfig) { fc.IsID = true }
}

// Searchable includes the field in text search; fuzzy enables typo tolerance for it.
func Searchable(fuzzy bool) FieldOption {
	return func(fc *FieldConfig) {
		fc.Searchable = true
		fc.SearchFuzzy = fuzzy
	}
}

// WithFacet makes the field facetable with the given kind.
func WithFacet(kind model.FacetKind) FieldOption {
	return func(fc *FieldConfig) { fc.Facet = kind }
}

// WithFacetHelp attaches help text shown next to the facet control.
func WithFacetHelp(help string) FieldOption {
	return func(fc *FieldConfig) { fc.FacetHelp = help }
}

// Hidden hides the field unless the user turns it on.
func Hidden() FieldOption {
	return func(fc *FieldConfig) { fc.DefaultVisible = false }
}

// WithRender sets the presentation hint.
func WithRender(render string) FieldOption {
	return func(fc *FieldConfig) { fc.Render = render }
}

// IsFacetable reports whether the field has a facet kind.
func (fc FieldConfig) IsFacetable() bool {
	return fc.Facet != model.FacetNone
}
