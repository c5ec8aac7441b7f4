package config

import (
	"fmt"
	"strings"

	"github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/model"
)

// Registry is the validated, ordered set of field descriptors for a dataset.
// A *Registry is immutable once built, so its pointer identity can be used
// as a cache key.
type Registry struct {
	fields  []FieldConfig
	byName  map[string]int
	idField string
}

// NewRegistry validates fields and builds a Registry.
// Every problem found is reported in a single *errors.ConfigError.
func NewRegistry(fields []FieldConfig) (*Registry, error) {
	if len(fields) == 0 {
		return nil, errors.NewConfigError("At least one field must be defined in config")
	}

	var problems []string
	reg := &Registry{
		fields: make([]FieldConfig, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(reg.fields, fields)

	var idFields []string
	for i, fc := range reg.fields {
		if strings.TrimSpace(fc.Field) == "" {
			problems = append(problems, fmt.Sprintf("Field name at position %d cannot be empty or whitespace-only", i))
			continue
		}
		if _, dup := reg.byName[fc.Field]; dup {
			problems = append(problems, "Duplicate field '"+fc.Field+"' found in fields")
			continue
		}
		reg.byName[fc.Field] = i
		if !fc.Facet.IsValid() {
			problems = append(problems, "Invalid facet kind '"+string(fc.Facet)+"' for field '"+fc.Field+"' (must be 'text', 'array' or 'numeric')")
		}
		if fc.IsID {
			idFields = append(idFields, fc.Field)
		}
		if fc.Label == "" {
			reg.fields[i].Label = fc.Field
		}
	}

	switch len(idFields) {
	case 0:
		problems = append(problems, "No ID field defined in config")
	case 1:
		reg.idField = idFields[0]
	default:
		problems = append(problems, "Multiple ID fields defined in config: "+strings.Join(idFields, ", "))
	}

	if len(problems) > 0 {
		return nil, errors.NewConfigError(problems...)
	}
	return reg, nil
}

// MustRegistry is NewRegistry for static field lists known to be valid.
func MustRegistry(fields []FieldConfig) *Registry {
	reg, err := NewRegistry(fields)
	if err != nil {
		panic(err)
	}
	return reg
}

// Fields returns a copy of the field descriptors in declaration order.
func (r *Registry) Fields() []FieldConfig {
	out := make([]FieldConfig, len(r.fields))
	copy(out, r.fields)
	return out
}

// IDField returns the name of the identity field.
func (r *Registry) IDField() string {
	return r.idField
}

// Field looks up a field by name.
func (r *Registry) Field(name string) (FieldConfig, bool) {
	i, ok := r.byName[name]
	if !ok {
		return FieldConfig{}, false
	}
	return r.fields[i], true
}

// FacetKind returns the facet kind of a field, FacetNone for unknown fields.
func (r *Registry) FacetKind(name string) model.FacetKind {
	fc, ok := r.Field(name)
	if !ok {
		return model.FacetNone
	}
	return fc.Facet
}

// FacetFields returns the facetable fields in declaration order.
func (r *Registry) FacetFields() []FieldConfig {
	var out []FieldConfig
	for _, fc := range r.fields {
		if fc.IsFacetable() {
			out = append(out, fc)
		}
	}
	return out
}

// SearchableFields returns the names of the searchable fields in declaration order.
func (r *Registry) SearchableFields() []string {
	var out []string
	for _, fc := range r.fields {
		if fc.Searchable {
			out = append(out, fc.Field)
		}
	}
	return out
}

// DefaultVisibleFields returns the fields shown on first run.
func (r *Registry) DefaultVisibleFields() []string {
	var out []string
	for _, fc := range r.fields {
		if fc.DefaultVisible {
			out = append(out, fc.Field)
		}
	}
	return out
}

// SearchSettings derives the text index settings from the registry.
func (r *Registry) SearchSettings() SearchSettings {
	settings := SearchSettings{
		IDField:          r.idField,
		SearchableFields: r.SearchableFields(),
	}
	for _, fc := range r.fields {
		if fc.Searchable && fc.SearchFuzzy {
			settings.FuzzyFields = append(settings.FuzzyFields, fc.Field)
		}
	}
	settings.ApplyDefaults()
	return settings
}
