package shared

import (
	"errors"
	"fmt"
)

// DomainError is a business rule violation. Code is stable and maps to an API error code;
// Message is shown to the caller as is.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func (e *DomainError) Error() string { return e.Message }

// Is matches on Code, so errors.Is(err, ErrNotFound) holds for any NOT_FOUND error
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	return errors.As(target, &other) && other.Code == e.Code
}

// Withf returns a copy of e with a more specific message
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return NewDomainError(e.Code, fmt.Sprintf(format, args...))
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)
