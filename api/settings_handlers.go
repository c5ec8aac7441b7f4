package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/model"
)

// DisplayRequest selects how results are displayed.
type DisplayRequest struct {
	ResultsDisplayType model.ResultsDisplayType `json:"results_display_type"`
}

// GetSettingsHandler returns the user settings.
func (api *API) GetSettingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.settings.Get())
}

// ToggleVisibleFieldHandler shows or hides a field in the results.
func (api *API) ToggleVisibleFieldHandler(c *gin.Context) {
	field := c.Param("field")
	if result := ValidateFieldName(field); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	updated, err := api.settings.ToggleField(field)
	if err != nil {
		api.sendSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// SetDisplayHandler selects the List or Table display.
func (api *API) SetDisplayHandler(c *gin.Context) {
	var req DisplayRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateDisplayType(req.ResultsDisplayType); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	updated, err := api.settings.SetDisplay(req.ResultsDisplayType)
	if err != nil {
		api.sendSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ResetSettingsHandler restores the default settings.
func (api *API) ResetSettingsHandler(c *gin.Context) {
	updated, err := api.settings.Reset()
	if err != nil {
		api.sendSettingsError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (api *API) sendSettingsError(c *gin.Context, err error) {
	var fieldErr *internalErrors.FieldNotFoundError
	switch {
	case errors.As(err, &fieldErr):
		SendFieldNotFoundError(c, fieldErr.Field)
	case errors.Is(err, internalErrors.ErrInvalidInput):
		SendBrowserError(c, "settings update", err)
	default:
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed,
			"Failed to save user settings: "+err.Error())
	}
}
