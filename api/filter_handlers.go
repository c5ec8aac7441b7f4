package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-facet-browser/services"
)

// ToggleRequest selects or deselects one facet value. Numeric fields take
// the number as a string, e.g. "3".
type ToggleRequest struct {
	Value *string `json:"value"`
}

// RangeRequest bounds a numeric field. A missing or null bound is open.
type RangeRequest struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// GetFiltersHandler returns the active filters.
func (api *API) GetFiltersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"filters": api.browser.Filters()})
}

// ToggleValueHandler toggles a value of a text, array or numeric facet.
// Unknown fields are 404; fields that are not facetable leave the filters
// unchanged and report changed=false.
func (api *API) ToggleValueHandler(c *gin.Context) {
	field, ok := api.knownField(c)
	if !ok {
		return
	}

	var req ToggleRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if req.Value == nil {
		result := &ValidationResult{Valid: true}
		result.AddError("value", "Value is required")
		SendValidationError(c, result)
		return
	}

	change := api.browser.ToggleValue(field, *req.Value)
	if change.Changed {
		api.analytics.TrackFilter(field, *req.Value)
	}
	api.sendFilterChange(c, change)
}

// SetRangeHandler sets the range of a numeric facet. Reversed bounds are
// swapped; with both bounds missing the field's range is removed.
func (api *API) SetRangeHandler(c *gin.Context) {
	field, ok := api.knownField(c)
	if !ok {
		return
	}

	var req RangeRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	change := api.browser.SetRange(field, req.Min, req.Max)
	if change.Changed {
		api.analytics.TrackFilter(field, "")
	}
	api.sendFilterChange(c, change)
}

// ClearRangeHandler removes the range of a numeric facet.
func (api *API) ClearRangeHandler(c *gin.Context) {
	field, ok := api.knownField(c)
	if !ok {
		return
	}
	api.sendFilterChange(c, api.browser.ClearRange(field))
}

// ClearFieldHandler removes whatever filter a field has.
func (api *API) ClearFieldHandler(c *gin.Context) {
	field, ok := api.knownField(c)
	if !ok {
		return
	}
	api.sendFilterChange(c, api.browser.ClearField(field))
}

// ClearAllFiltersHandler removes every filter.
func (api *API) ClearAllFiltersHandler(c *gin.Context) {
	api.sendFilterChange(c, api.browser.ClearAll())
}

// knownField validates the :field parameter and sends the error response
// when it is malformed or not in the registry.
func (api *API) knownField(c *gin.Context) (string, bool) {
	field := c.Param("field")
	_, ok, result := ValidateKnownField(api.browser.Registry(), field)
	if result.HasErrors() {
		SendValidationError(c, result)
		return "", false
	}
	if !ok {
		SendFieldNotFoundError(c, field)
		return "", false
	}
	return field, true
}

func (api *API) sendFilterChange(c *gin.Context, change services.FilterChange) {
	c.JSON(http.StatusOK, change)
}
