package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable failure reason. Transport layers
// map codes to status codes; UI layers map them to user-facing copy.
type ErrorCode string

const (
	CodeValidation ErrorCode = "VALIDATION_ERROR"
	CodeNotFound   ErrorCode = "NOT_FOUND"
	CodeForbidden  ErrorCode = "FORBIDDEN"
	CodeStore      ErrorCode = "STORE_ERROR"

	// Conflict-class codes. All are detected inside the atomic
	// reservation/cancellation unit and abort it cleanly.
	CodeConflict            ErrorCode = "CONFLICT"
	CodeSessionFull         ErrorCode = "SESSION_FULL"
	CodeAlreadyBooked       ErrorCode = "ALREADY_BOOKED"
	CodeAlreadyCancelled    ErrorCode = "ALREADY_CANCELLED"
	CodeInvalidCapacity     ErrorCode = "INVALID_CAPACITY"
	CodeSelfBooking         ErrorCode = "SELF_BOOKING_FORBIDDEN"
	CodeSessionStarted      ErrorCode = "SESSION_STARTED"
	CodeSessionNotAvailable ErrorCode = "SESSION_NOT_AVAILABLE"
	CodeInvalidState        ErrorCode = "INVALID_STATE"
)

// DomainError is a typed failure with a stable code. Callers receive these
// instead of raw persistence errors.
type DomainError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewValidationError creates a VALIDATION_ERROR.
func NewValidationError(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NewNotFoundError creates a NOT_FOUND for the given resource and identifier.
func NewNotFoundError(resource, id string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// NewForbiddenError creates a FORBIDDEN.
func NewForbiddenError(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

// NewConflictError creates a generic CONFLICT.
func NewConflictError(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// NewInvalidStateError creates an INVALID_STATE for a rejected transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: fmt.Sprintf("cannot transition from %s to %s", from, to)}
}

// NewStoreError wraps an unexpected persistence failure. The underlying error
// is not exposed to callers; it is logged at the boundary.
func NewStoreError(message string) *DomainError {
	return &DomainError{Code: CodeStore, Message: message}
}

// NewDomainError creates a DomainError with an explicit code.
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Non-domain errors report CodeStore.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeStore
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsConflict reports whether err belongs to the conflict class.
func IsConflict(err error) bool {
	switch CodeOf(err) {
	case CodeConflict, CodeSessionFull, CodeAlreadyBooked, CodeAlreadyCancelled,
		CodeInvalidCapacity, CodeSelfBooking, CodeSessionStarted,
		CodeSessionNotAvailable, CodeInvalidState:
		return true
	}
	return false
}
