package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-facet-browser/internal/errors"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client Error Codes (4xx)
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeFieldNotFound    ErrorCode = "FIELD_NOT_FOUND"
	ErrorCodeJobNotFound      ErrorCode = "JOB_NOT_FOUND"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	ErrorCodeNotLoaded        ErrorCode = "DATASET_NOT_LOADED"
	ErrorCodeIndexInProgress  ErrorCode = "INDEX_IN_PROGRESS"
	ErrorCodeSuperseded       ErrorCode = "QUERY_SUPERSEDED"
	ErrorCodeStaleGeneration  ErrorCode = "STALE_GENERATION"
	ErrorCodeRequestCancelled ErrorCode = "REQUEST_CANCELLED"

	// Server Error Codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatasetLoadFailed  ErrorCode = "DATASET_LOAD_FAILED"
	ErrorCodeSearchFailed       ErrorCode = "SEARCH_FAILED"
	ErrorCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrorCodeJobExecutionFailed ErrorCode = "JOB_EXECUTION_FAILED"
)

// statusClientClosedRequest is the non-standard status used when the client
// went away before the response was ready.
const statusClientClosedRequest = 499

// ErrorDetail provides additional context for an error
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError represents a standardized API error response
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIErrorResponse creates a standardized error response
func APIErrorResponse(code ErrorCode, message string, details ...ErrorDetail) *APIError {
	return &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// SendError sends a standardized error response
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	errorResponse := APIErrorResponse(code, message, details...)

	// Add request ID if available
	if requestID, exists := c.Get(requestIDKey); exists {
		if id, ok := requestID.(string); ok {
			errorResponse.RequestID = id
		}
	}

	c.JSON(statusCode, errorResponse)
}

// SendStructuredValidationError sends a validation error with structured details
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{
			Field:   err.Field,
			Message: err.Message,
			Code:    "VALIDATION_ERROR",
		}
	}

	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// SendFieldNotFoundError sends a standardized unknown field error
func SendFieldNotFoundError(c *gin.Context, field string) {
	SendError(c, http.StatusNotFound, ErrorCodeFieldNotFound,
		"Field '"+field+"' not found")
}

// SendJobNotFoundError sends a standardized job not found error
func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound,
		"Job '"+jobID+"' not found")
}

// SendInvalidJSONError sends a standardized invalid JSON error
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON,
		"Invalid JSON in request body: "+err.Error())
}

// SendInternalError sends a standardized internal server error
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

// SendJobExecutionError sends a standardized job execution error
func SendJobExecutionError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeJobExecutionFailed,
		"Failed to start "+operation+" job: "+err.Error())
}

// SendBrowserError maps an error returned by the browser to a response.
func SendBrowserError(c *gin.Context, operation string, err error) {
	var loadErr *internalErrors.DatasetLoadError
	var validationErr *internalErrors.ValidationError

	switch {
	case errors.As(err, &loadErr):
		SendError(c, http.StatusBadGateway, ErrorCodeDatasetLoadFailed, loadErr.Error())
	case errors.Is(err, internalErrors.ErrDatasetNotLoaded):
		SendError(c, http.StatusConflict, ErrorCodeNotLoaded,
			"Dataset is not loaded yet")
	case errors.Is(err, internalErrors.ErrIndexInProgress):
		SendError(c, http.StatusConflict, ErrorCodeIndexInProgress,
			"Search index is being built, only a blank query is allowed")
	case errors.Is(err, internalErrors.ErrSuperseded):
		SendError(c, http.StatusConflict, ErrorCodeSuperseded, err.Error())
	case errors.Is(err, internalErrors.ErrStaleGeneration):
		SendError(c, http.StatusConflict, ErrorCodeStaleGeneration, err.Error())
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, validationErr.Message,
			ErrorDetail{Field: validationErr.Field, Message: validationErr.Message, Code: "VALIDATION_ERROR"})
	case errors.Is(err, internalErrors.ErrFieldNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeFieldNotFound, err.Error())
	case errors.Is(err, internalErrors.ErrJobNotFound):
		SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		SendError(c, statusClientClosedRequest, ErrorCodeRequestCancelled,
			"Request cancelled during "+operation)
	default:
		SendInternalError(c, operation, err)
	}
}
