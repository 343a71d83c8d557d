package domain

import (
	"errors"
	"fmt"
	"time"
)

// Error codes surfaced to callers. Responses carry these machine-readable
// codes and never leak internal state or stack traces.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeConflict         = "DUPLICATE_ENTRY"
	ErrCodeInsufficientData = "INSUFFICIENT_DATA"
	ErrCodeModelUnavailable = "MODEL_UNAVAILABLE"
	ErrCodePersistence      = "PERSISTENCE_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeInternal         = "INTERNAL_SERVER_ERROR"
)

// ErrNotFound marks lookups for records that do not exist.
var ErrNotFound = errors.New("not found")

// APIError is the standardized error envelope returned to callers.
type APIError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates an APIError stamped with the current time.
func NewAPIError(code, message, details, requestID string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// ValidationError reports a malformed or out-of-bound input field. No write
// is performed when one is returned.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: message, Value: value}
}

// ConflictError reports a duplicate daily entry for the same user and date.
// The storage-level uniqueness constraint is the source of truth; there is
// no update path for daily entries.
type ConflictError struct {
	UserID    int64  `json:"user_id"`
	EntryDate string `json:"entry_date"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("daily entry already exists for user %d on %s", e.UserID, e.EntryDate)
}

// InsufficientDataError reports that a rollup lacks the required sample
// count. It is a soft condition; the caller may retry later.
type InsufficientDataError struct {
	Required int `json:"required"`
	Actual   int `json:"actual"`
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: have %d samples, need %d", e.Actual, e.Required)
}

// ModelUnavailableError reports an ML predictor failure. It is always
// recovered locally by falling back to the rule-based classification and is
// never surfaced to callers.
type ModelUnavailableError struct {
	Reason FallbackReason `json:"reason"`
	Cause  error          `json:"-"`
}

// Error implements the error interface.
func (e *ModelUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("model unavailable (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("model unavailable (%s)", e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ModelUnavailableError) Unwrap() error { return e.Cause }
