package config

import (
	"github.com/gcbaptista/go-facet-browser/model"
)

// GoCamFields is the field registry of the GO-CAM model browser.
func GoCamFields() []FieldConfig {
	return []FieldConfig{
		NewField("id", WithLabel("Model ID"), AsID(), Searchable(false), WithRender(RenderBioregistryLink)),
		NewField("title", WithLabel("Title"), Searchable(true), WithRender(RenderUntitled)),
		NewField("taxon_label", WithLabel("Taxon"), WithFacet(model.FacetText), WithRender(RenderBioregistryLink)),
		NewField("model_activity_part_of_rollup_label", WithLabel("Part Of"), WithFacet(model.FacetArray), WithRender(RenderJoin)),
		NewField("model_activity_occurs_in_rollup_label", WithLabel("Occurs In"), WithFacet(model.FacetArray), WithRender(RenderJoin)),
		NewField("model_activity_enabled_by_terms_label", WithLabel("Genes"), WithFacet(model.FacetArray), WithRender(RenderJoin)),
		NewField("number_of_activities", WithLabel("Number of Activities"), WithFacet(model.FacetNumeric), Hidden()),
		NewField("length_of_longest_causal_association_path", WithLabel("Longest Causal Path"), WithFacet(model.FacetNumeric), Hidden(),
			WithFacetHelp("Number of edges in the longest chain of causally connected activities")),
		NewField("number_of_strongly_connected_components", WithLabel("Strongly Connected Components"), WithFacet(model.FacetNumeric), Hidden()),
	}
}

// DefaultGoCamConfig returns the built-in application configuration.
func DefaultGoCamConfig() *AppConfig {
	fields := GoCamFields()
	specs := make([]FieldSpec, 0, len(fields))
	for _, fc := range fields {
		specs = append(specs, SpecFromField(fc))
	}

	cfg := &AppConfig{
		Title:             "GO-CAM Browser",
		Description:       "Search and filter models by multiple criteria",
		SearchPlaceholder: "Search models by ID or title",
		DataURL:           "data.json",
		HeaderLinks: []HeaderLink{
			{Label: "GO-CAM Overview", Href: "https://geneontology.org/docs/gocam-overview/", NewTab: true},
			{Label: "Gene Ontology Home", Href: "https://geneontology.org/", NewTab: true},
			{Label: "Help", Href: "https://help.geneontology.org/", NewTab: true},
		},
		Fields: specs,
	}
	cfg.ApplyDefaults()
	return cfg
}
