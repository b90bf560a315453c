package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code and message so wrapped sentinels compare equal.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
	ErrCodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
)

// Validation errors
var (
	ErrMalformedChapter   = NewDomainError(ErrCodeValidation, "malformed chapter document")
	ErrInvalidRules       = NewDomainError(ErrCodeValidation, "invalid enrichment rules")
	ErrInvalidRun         = NewDomainError(ErrCodeValidation, "invalid run")
	ErrUnknownPass        = NewDomainError(ErrCodeValidation, "unknown pass")
	ErrMissingRequiredArg = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrChapterNotFound = NewDomainError(ErrCodeNotFound, "chapter not found")
	ErrRunNotFound     = NewDomainError(ErrCodeNotFound, "run not found")
)

// Operation errors
var (
	ErrRunInProgress      = NewDomainError(ErrCodeConflict, "another pass is already running")
	ErrStoreNotConfigured = NewDomainError(ErrCodeInvalidOperation, "corpus store not configured")
	ErrRunLogDisabled     = NewDomainError(ErrCodeInvalidOperation, "run log not configured: DATABASE_URL required")
	ErrUnauthorized       = NewDomainError(ErrCodeUnauthorized, "invalid api token")
	ErrRequestTooLarge    = NewDomainError(ErrCodePayloadTooLarge, "request body too large")
)

// MalformedChapter wraps a decode failure for the chapter stored under key.
func MalformedChapter(key string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeValidation, ErrMalformedChapter.Message, fmt.Errorf("%s: %w", key, err))
}
