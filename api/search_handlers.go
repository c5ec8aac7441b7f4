package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-facet-browser/internal/facets"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/services"
)

// SearchRequest defines the structure for search queries.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchHandler narrows the working set to the hits of a text query. A blank
// query selects the whole dataset.
func (api *API) SearchHandler(c *gin.Context) {
	startTime := time.Now()

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := api.browser.Search(c.Request.Context(), req.Query)
	if err != nil {
		SendBrowserError(c, "search", err)
		return
	}

	elapsed := time.Since(startTime)
	api.trackSearch(outcome, model.SearchChannelHTTP, elapsed)
	log.Printf("Info: Search %q matched %d of %d items in %v",
		outcome.Query, outcome.MatchingCount, outcome.WorkingSetSize, elapsed)
	c.JSON(http.StatusOK, outcome)
}

// GetResultsHandler returns a window of the matching items with the facet
// counts and the active filters.
// Query parameters: offset (default 0), limit (default 50, at most MaxPageSize)
func (api *API) GetResultsHandler(c *gin.Context) {
	offset, limit, result := ValidateWindow(c.Query("offset"), c.Query("limit"))
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	page, err := api.browser.Results(offset, limit)
	if err != nil {
		SendBrowserError(c, "results", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// FacetValuesResponse is a facet with its values in display order.
type FacetValuesResponse struct {
	Field  string              `json:"field"`
	Label  string              `json:"label"`
	Help   string              `json:"help,omitempty"`
	Type   model.FacetKind     `json:"type"`
	Values []facets.ValueCount `json:"values,omitempty"`
	Range  *[2]float64         `json:"range,omitempty"`
}

// GetFacetsHandler returns the facet counts of the working set under the
// active filters. With ?sorted=true the facets are returned as a list in
// registry order with values sorted by count.
func (api *API) GetFacetsHandler(c *gin.Context) {
	counts, err := api.browser.Facets()
	if err != nil {
		SendBrowserError(c, "facets", err)
		return
	}

	if c.Query("sorted") != "true" {
		c.JSON(http.StatusOK, gin.H{"facets": counts})
		return
	}

	out := make([]FacetValuesResponse, 0, len(counts))
	for _, fc := range api.browser.Registry().FacetFields() {
		fcounts, ok := counts[fc.Field]
		if !ok {
			continue
		}
		entry := FacetValuesResponse{
			Field: fc.Field,
			Label: fc.Label,
			Help:  fc.FacetHelp,
			Type:  fcounts.Type,
		}
		if fcounts.Type == model.FacetNumeric {
			bounds := fcounts.Range
			entry.Range = &bounds
		} else {
			entry.Values = facets.SortedValues(fcounts)
		}
		out = append(out, entry)
	}
	c.JSON(http.StatusOK, gin.H{"facets": out})
}

func (api *API) trackSearch(outcome services.SearchOutcome, channel model.SearchChannel, elapsed time.Duration) {
	api.analytics.TrackSearch(model.SearchEvent{
		Generation:     outcome.Generation,
		Query:          outcome.Query,
		Channel:        channel,
		ResponseTime:   elapsed,
		WorkingSetSize: outcome.WorkingSetSize,
		MatchingCount:  outcome.MatchingCount,
	})
}
