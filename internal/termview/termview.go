// Package termview renders facets and result windows for terminals.
package termview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/facets"
	"github.com/gcbaptista/go-facet-browser/internal/filters"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/services"
)

const (
	notAvailable = "N/A"
	untitled     = "Untitled"

	// BioregistryURL resolves CURIEs such as "gomodel:0001".
	BioregistryURL = "https://bioregistry.io/"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("32"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	blockStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))
)

// FormatValue renders one field of an item as text according to the field's
// render hint.
func FormatValue(fc config.FieldConfig, item model.Item) string {
	raw := item.Get(fc.Field)
	if raw == nil {
		if fc.Render == config.RenderUntitled {
			return untitled
		}
		return notAvailable
	}

	switch fc.Render {
	case config.RenderJoin:
		values := facets.ExtractValues(raw, model.FacetArray)
		if len(values) == 0 {
			return notAvailable
		}
		return strings.Join(values, ", ")
	case config.RenderUntitled:
		if s := strings.TrimSpace(facets.Stringify(raw)); s != "" {
			return s
		}
		return untitled
	}
	return facets.Stringify(raw)
}

// Link returns the resolver URL for fields rendered as bioregistry links.
func Link(fc config.FieldConfig, item model.Item) (string, bool) {
	if fc.Render != config.RenderBioregistryLink {
		return "", false
	}
	s, ok := item.Get(fc.Field).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return BioregistryURL + strings.TrimSpace(s), true
}

// Facets renders every facetable field: categorical values by count with
// selected values marked, numeric fields as their observed range. maxValues
// <= 0 lists every value.
func Facets(reg *config.Registry, counts map[string]model.FacetCounts, state *filters.State, maxValues int) string {
	var out strings.Builder
	for _, fc := range reg.FacetFields() {
		fcounts, ok := counts[fc.Field]
		if !ok {
			continue
		}
		active, _ := state.Get(fc.Field)

		out.WriteString(headerStyle.Render(fc.Label))
		out.WriteString("\n")
		if fcounts.Type == model.FacetNumeric {
			out.WriteString(renderRange(fcounts, active))
		} else {
			out.WriteString(renderValues(fcounts, active, maxValues))
		}
		if fc.FacetHelp != "" {
			out.WriteString(metaStyle.Render("  " + fc.FacetHelp))
			out.WriteString("\n")
		}
		out.WriteString("\n")
	}
	return out.String()
}

func renderValues(fcounts model.FacetCounts, active filters.Filter, maxValues int) string {
	selected, _ := active.(filters.Categorical)
	values := facets.SortedValues(fcounts)
	if len(values) == 0 {
		return metaStyle.Render("  (no values)") + "\n"
	}

	var out strings.Builder
	for i, vc := range values {
		if maxValues > 0 && i == maxValues {
			out.WriteString(metaStyle.Render(fmt.Sprintf("  ... %d more", len(values)-maxValues)))
			out.WriteString("\n")
			break
		}
		line := fmt.Sprintf("%s (%d)", vc.Value, vc.Count)
		if selected.Contains(vc.Value) {
			out.WriteString("  " + selectedStyle.Render("[x] "+line))
		} else {
			out.WriteString("  [ ] " + line)
		}
		out.WriteString("\n")
	}
	return out.String()
}

func renderRange(fcounts model.FacetCounts, active filters.Filter) string {
	line := fmt.Sprintf("  %s .. %s", facets.FormatNumber(fcounts.Min()), facets.FormatNumber(fcounts.Max()))
	if r, ok := active.(filters.Range); ok && !r.IsUnbounded() {
		line += selectedStyle.Render(fmt.Sprintf("  selected %s .. %s", formatBound(r.Min), formatBound(r.Max)))
	}
	return line + "\n"
}

func formatBound(b *float64) string {
	if b == nil {
		return "*"
	}
	return facets.FormatNumber(*b)
}

// Results renders a window of items with the visible fields, as a list of
// blocks or as a table depending on the display setting.
func Results(reg *config.Registry, page services.ResultsPage, us model.UserSettings) string {
	fields := visibleFields(reg, us.VisibleFields)

	var out strings.Builder
	out.WriteString(titleStyle.Render(summary(page)))
	out.WriteString("\n")
	if len(page.Items) == 0 {
		out.WriteString(metaStyle.Render("No results found"))
		out.WriteString("\n")
		return out.String()
	}

	if us.ResultsDisplayType == model.DisplayTable {
		out.WriteString(renderTable(fields, page.Items))
		out.WriteString("\n")
		return out.String()
	}
	for _, item := range page.Items {
		out.WriteString(renderBlock(fields, item))
		out.WriteString("\n")
	}
	return out.String()
}

func summary(page services.ResultsPage) string {
	if page.Total == 0 {
		return "0 results"
	}
	first := page.Offset + 1
	last := page.Offset + len(page.Items)
	if len(page.Items) == 0 {
		return fmt.Sprintf("%d results", page.Total)
	}
	return fmt.Sprintf("%d-%d of %d results", first, last, page.Total)
}

// visibleFields keeps the known fields in the user's order.
func visibleFields(reg *config.Registry, names []string) []config.FieldConfig {
	out := make([]config.FieldConfig, 0, len(names))
	for _, name := range names {
		if fc, ok := reg.Field(name); ok {
			out = append(out, fc)
		}
	}
	return out
}

func renderBlock(fields []config.FieldConfig, item model.Item) string {
	lines := make([]string, 0, len(fields))
	for _, fc := range fields {
		line := headerStyle.Render(fc.Label+":") + " " + FormatValue(fc, item)
		if url, ok := Link(fc, item); ok {
			line += " " + urlStyle.Render(url)
		}
		lines = append(lines, line)
	}
	return blockStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderTable(fields []config.FieldConfig, items []model.Item) string {
	headers := make([]string, len(fields))
	for i, fc := range fields {
		headers[i] = fc.Label
	}

	t := newTable(headers...)

	for _, item := range items {
		row := make([]string, len(fields))
		for i, fc := range fields {
			row[i] = FormatValue(fc, item)
		}
		t.Row(row...)
	}
	return t.Render()
}

// Fields renders the field registry as a table.
func Fields(reg *config.Registry) string {
	t := newTable("Field", "Label", "Facet", "Search", "Visible")

	for _, fc := range reg.Fields() {
		facet := string(fc.Facet)
		if facet == "" {
			facet = "-"
		}
		search := "-"
		switch {
		case fc.IsID:
			search = "id"
		case fc.Searchable && fc.SearchFuzzy:
			search = "fuzzy"
		case fc.Searchable:
			search = "exact"
		}
		visible := "no"
		if fc.DefaultVisible {
			visible = "yes"
		}
		t.Row(fc.Field, fc.Label, facet, search, visible)
	}
	return t.Render() + "\n"
}

// Analytics renders the usage dashboard: totals, popular queries and
// popular filters.
func Analytics(d model.AnalyticsDashboard) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Searches (24h)") + "\n")
	b.WriteString(fmt.Sprintf("%d searches, %d with no results, avg %dms (%s)\n",
		d.TotalSearches, d.ZeroResultSearches, d.AvgResponseTime, d.ResponseTimeChange))

	if len(d.PopularSearches) > 0 {
		t := newTable("Query", "Searches")
		for _, p := range d.PopularSearches {
			t.Row(p.Query, strconv.Itoa(p.SearchCount))
		}
		b.WriteString(t.Render() + "\n")
	}
	if len(d.ZeroResultQueries) > 0 {
		b.WriteString(headerStyle.Render("No results") + "\n")
		for _, p := range d.ZeroResultQueries {
			b.WriteString(fmt.Sprintf("  %s (%d)\n", p.Query, p.SearchCount))
		}
	}
	if len(d.PopularFilters) > 0 {
		t := newTable("Field", "Value", "Toggles")
		for _, p := range d.PopularFilters {
			value := p.Value
			if value == "" {
				value = "(range)"
			}
			t.Row(p.Field, value, strconv.Itoa(p.ToggleCount))
		}
		b.WriteString(t.Render() + "\n")
	}
	return b.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}
