// Package api provides validation utilities for API request handling.
package api

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/model"
)

// MaxPageSize caps the limit of a results window.
const MaxPageSize = 500

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of validation operations
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// ValidateFieldName validates a field path parameter
func ValidateFieldName(field string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if field == "" {
		result.AddError("field", "Field name is required")
		return result
	}

	if strings.TrimSpace(field) != field {
		result.AddError("field", "Field name cannot have leading or trailing whitespace")
		return result
	}

	return result
}

// ValidateKnownField validates a field parameter and checks it against the
// registry. The second return value reports whether the field exists.
func ValidateKnownField(reg *config.Registry, field string) (config.FieldConfig, bool, *ValidationResult) {
	result := ValidateFieldName(field)
	if result.HasErrors() {
		return config.FieldConfig{}, false, result
	}
	fc, ok := reg.Field(field)
	return fc, ok, result
}

// ValidateWindow parses the offset and limit query parameters of a results
// window. Missing values default to the first page of browser.DefaultPageSize.
func ValidateWindow(offsetParam, limitParam string) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}
	offset, limit := 0, 0

	if offsetParam != "" {
		v, err := strconv.Atoi(offsetParam)
		switch {
		case err != nil:
			result.AddError("offset", "Offset must be an integer")
		case v < 0:
			result.AddError("offset", "Offset cannot be negative")
		default:
			offset = v
		}
	}

	if limitParam != "" {
		v, err := strconv.Atoi(limitParam)
		switch {
		case err != nil:
			result.AddError("limit", "Limit must be an integer")
		case v < 1:
			result.AddError("limit", "Limit must be greater than 0")
		default:
			limit = min(v, MaxPageSize)
		}
	}

	return offset, limit, result
}

// ValidateDisplayType validates a results display type
func ValidateDisplayType(display model.ResultsDisplayType) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if !display.IsValid() {
		result.AddError("results_display_type",
			"Display type must be '"+string(model.DisplayList)+"' or '"+string(model.DisplayTable)+"'")
	}

	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding validates JSON binding and returns a standardized error
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}

	return result
}
