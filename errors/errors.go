package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// ExitCode returns the process exit status for this error.
func (e *AppError) ExitCode() int { return ExitCode(e.Code) }

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// InvalidInput creates an AppError for a single rejected value.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason))
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation creates an AppError for a set of validation failures.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

// MissingField creates an AppError for a missing required field.
func MissingField(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("Missing required field: %s", field)).
		WithDetail("field", field)
}

// InvalidFormat creates an AppError for a field with an invalid format.
func InvalidFormat(field, expectedFormat string) *AppError {
	return New(ErrCodeInvalidFormat, fmt.Sprintf("Invalid format for %s. Expected: %s", field, expectedFormat)).
		WithDetail("field", field).
		WithDetail("expected_format", expectedFormat)
}

// ConfigLoad creates an AppError for a configuration source that could not be read.
func ConfigLoad(source string, cause error) *AppError {
	return New(ErrCodeConfigLoad, fmt.Sprintf("Unable to load configuration from %s.", source)).
		WithDetail("source", source).
		WithCause(cause)
}

// InvalidConfig creates an AppError for a configuration that failed validation.
func InvalidConfig(cause error) *AppError {
	return New(ErrCodeInvalidConfig, "Configuration is invalid.").WithCause(cause)
}

// Unavailable creates an AppError for an endpoint that could not be reached.
func Unavailable(endpoint string, cause error) *AppError {
	return New(ErrCodeUnavailable, fmt.Sprintf("Unable to reach %s.", endpoint)).
		WithDetail("endpoint", endpoint).
		WithCause(cause)
}

// Timeout creates an AppError for an operation that ran out of time.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The operation took too long.").
		WithDetail("operation", operation)
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred.").WithCause(cause)
}
