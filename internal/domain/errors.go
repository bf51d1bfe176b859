package domain

import "errors"

// ErrorKind classifies failures so transports can map them to a status code
type ErrorKind string

const (
	KindNotFound              ErrorKind = "not_found"
	KindPermissionDenied      ErrorKind = "permission_denied"
	KindBusinessRuleViolation ErrorKind = "business_rule_violation"
	KindValidation            ErrorKind = "validation_error"
	KindExternal              ErrorKind = "external_failure"
	KindInternal              ErrorKind = "internal_error"
)

// Error is a domain failure carrying a kind and a caller-facing message
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	var inner *Error
	if e.Err == nil || errors.As(e.Err, &inner) {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the wrapped cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches kind sentinels, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// Kind sentinels for errors.Is checks
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrPermissionDenied      = &Error{Kind: KindPermissionDenied}
	ErrBusinessRuleViolation = &Error{Kind: KindBusinessRuleViolation}
	ErrValidation            = &Error{Kind: KindValidation}
	ErrExternal              = &Error{Kind: KindExternal}
)

// NewNotFound creates a not-found error
func NewNotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// NewPermissionDenied creates a permission error
func NewPermissionDenied(msg string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: msg}
}

// NewBusinessRuleViolation creates a business rule error
func NewBusinessRuleViolation(msg string) *Error {
	return &Error{Kind: KindBusinessRuleViolation, Message: msg}
}

// NewValidation creates a validation error
func NewValidation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf returns the kind of err, or KindInternal when err is not a domain error
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// APIError represents a standardized API error with HTTP status code
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// ValidationMessages provides human-readable validation error messages
// These map validator tags to user-friendly messages
var ValidationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"max":      "Exceeds maximum length",
	"min":      "Below minimum length",
	"gte":      "Must be greater than or equal to minimum value",
	"gt":       "Must be greater than minimum value",
	"lte":      "Must be less than or equal to maximum value",
	"lt":       "Must be less than maximum value",
	"url":      "Must be a valid URL",
	"oneof":    "Must be one of the allowed values",
	"len":      "Must be exactly the specified length",
	"gtefield": "Must not be before the start value",
	"datetime": "Must be a valid date",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := ValidationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Common error types for RFC 7807 Problem Details
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeBusinessRule = "business_rule_violation"
	ErrorTypeBadGateway   = "external_failure"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeInternal     = "internal_error"
)
