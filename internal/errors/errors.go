package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common error conditions
var (
	// ErrInvalidConfig is returned when the field registry or app configuration is unusable
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDatasetNotLoaded is returned when results are requested before a dataset is ready
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// ErrIndexInProgress is returned when a search is issued while the text index is (re)building
	ErrIndexInProgress = errors.New("index build in progress")

	// ErrStaleGeneration is returned when a result belongs to a dataset generation that was superseded
	ErrStaleGeneration = errors.New("stale dataset generation")

	// ErrSuperseded is returned when a newer search was issued before this one completed
	ErrSuperseded = errors.New("query superseded by a newer query")

	// ErrJobNotFound is returned when a job is not found
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrFieldNotFound is returned when a field is not part of the registry
	ErrFieldNotFound = errors.New("field not found")
)

// ConfigError represents a configuration error with every problem found
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid configuration"
	}
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError creates a new ConfigError
func NewConfigError(problems ...string) *ConfigError {
	return &ConfigError{Problems: problems}
}

// DatasetLoadError represents a failed dataset fetch or decode
type DatasetLoadError struct {
	Source string
	Err    error
}

func (e *DatasetLoadError) Error() string {
	return fmt.Sprintf("failed to load dataset from '%s': %v", e.Source, e.Err)
}

func (e *DatasetLoadError) Unwrap() error {
	return e.Err
}

func (e *DatasetLoadError) Is(target error) bool {
	return target == ErrDatasetNotLoaded
}

// NewDatasetLoadError creates a new DatasetLoadError
func NewDatasetLoadError(source string, err error) *DatasetLoadError {
	return &DatasetLoadError{Source: source, Err: err}
}

// StaleGenerationError represents work that finished for an outdated dataset generation
type StaleGenerationError struct {
	Generation uint64
	Current    uint64
}

func (e *StaleGenerationError) Error() string {
	return fmt.Sprintf("generation %d is stale (current generation is %d)", e.Generation, e.Current)
}

func (e *StaleGenerationError) Is(target error) bool {
	return target == ErrStaleGeneration
}

// NewStaleGenerationError creates a new StaleGenerationError
func NewStaleGenerationError(generation, current uint64) *StaleGenerationError {
	return &StaleGenerationError{Generation: generation, Current: current}
}

// JobNotFoundError represents a job not found error with context
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// NewJobNotFoundError creates a new JobNotFoundError
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// FieldNotFoundError represents a reference to a field the registry does not know
type FieldNotFoundError struct {
	Field string
}

func (e *FieldNotFoundError) Error() string {
	return fmt.Sprintf("field '%s' not found", e.Field)
}

func (e *FieldNotFoundError) Is(target error) bool {
	return target == ErrFieldNotFound
}

// NewFieldNotFoundError creates a new FieldNotFoundError
func NewFieldNotFoundError(field string) *FieldNotFoundError {
	return &FieldNotFoundError{Field: field}
}
