package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeValidation represents malformed caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeAuth represents missing/invalid credential errors
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeUpstream represents Trello API errors
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeNotImplemented represents deliberately unsupported operations
	ErrorTypeNotImplemented ErrorType = "not_implemented"
	// ErrorTypeStore represents relationship store errors
	ErrorTypeStore ErrorType = "store"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Validation Errors

// ValidationError is returned when caller input fails validation
type ValidationError struct {
	*BaseError
	Field string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
	}
}

// Auth Errors

// ErrMissingToken is returned when a request lacks the x-trello-token header
var ErrMissingToken = NewBaseError(ErrorTypeAuth, "Missing x-trello-token", nil)

// ErrBadWebhookSignature is returned when a webhook signature does not match
var ErrBadWebhookSignature = NewBaseError(ErrorTypeAuth, "bad sig", nil)

// Upstream Errors

// UpstreamError is returned when the Trello API responds with a non-success
// status, or when a call to it fails in transport (timeout included).
// StatusCode and Body carry the upstream response verbatim; transport
// failures have StatusCode 0.
type UpstreamError struct {
	*BaseError
	StatusCode int
	Body       string
}

func NewUpstreamError(statusCode int, body string) *UpstreamError {
	return &UpstreamError{
		BaseError:  NewBaseError(ErrorTypeUpstream, fmt.Sprintf("trello API returned %d", statusCode), nil),
		StatusCode: statusCode,
		Body:       body,
	}
}

func NewUpstreamTransport(operation string, err error) *UpstreamError {
	return &UpstreamError{
		BaseError: NewBaseError(ErrorTypeUpstream, fmt.Sprintf("trello API call failed: %s", operation), err),
	}
}

// NotImplemented Errors

// NotImplementedError is returned for operations this backend deliberately
// does not support, such as card creation without an explicit destination
type NotImplementedError struct {
	*BaseError
	Operation string
}

func NewNotImplemented(operation, reason string) *NotImplementedError {
	return &NotImplementedError{
		BaseError: NewBaseError(ErrorTypeNotImplemented, reason, nil),
		Operation: operation,
	}
}

// Store Errors

// ErrThemeNotFound is returned when a membership write references a theme
// that does not exist
type ErrThemeNotFound struct {
	*BaseError
	ThemeID int64
}

func NewThemeNotFound(themeID int64) *ErrThemeNotFound {
	return &ErrThemeNotFound{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("theme not found: %d", themeID), nil),
		ThemeID:   themeID,
	}
}

// ErrStoreQueryFailed is returned when a sqlite statement fails
type ErrStoreQueryFailed struct {
	*BaseError
	Query string
}

func NewStoreQueryFailed(query string, err error) *ErrStoreQueryFailed {
	return &ErrStoreQueryFailed{
		BaseError: NewBaseError(ErrorTypeStore, "query failed", err),
		Query:     query,
	}
}

// Helper functions

// typed is implemented by all error types that embed a BaseError, so
// IsErrorType can see their category without listing every type.
type typed interface {
	Base() *BaseError
}

func (e *ValidationError) Base() *BaseError     { return e.BaseError }
func (e *UpstreamError) Base() *BaseError       { return e.BaseError }
func (e *NotImplementedError) Base() *BaseError { return e.BaseError }
func (e *ErrThemeNotFound) Base() *BaseError    { return e.BaseError }
func (e *ErrStoreQueryFailed) Base() *BaseError { return e.BaseError }

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if baseErr, ok := err.(*BaseError); ok {
		return baseErr.Type == errType
	}
	if t, ok := err.(typed); ok {
		return t.Base().Type == errType
	}
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return IsErrorType(wrapped.Unwrap(), errType)
	}
	return false
}
