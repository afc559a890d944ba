// Package domain defines the core domain models for inkroom.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "IR-ROOM-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode returns the error code of a DomainError, or the generic
// internal error code for anything else.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrInternalServer.Code
}

// Event errors (EVT).
var (
	// ErrRoomMismatch indicates the event's declared room does not match
	// the room the connection is bound to. The message is dropped; the
	// connection stays up.
	ErrRoomMismatch = NewDomainError("IR-EVT-4001", "event room does not match connection room")

	// ErrUnknownEventType indicates an unrecognized message type.
	ErrUnknownEventType = NewDomainError("IR-EVT-4002", "unknown event type")

	// ErrEventValidation indicates event data validation failed.
	ErrEventValidation = NewDomainError("IR-EVT-4000", "event validation failed")

	// ErrStalePageCount indicates a page-count update that is not strictly
	// greater than the room's current count. Such updates are ignored.
	ErrStalePageCount = NewDomainError("IR-EVT-4090", "stale page count")
)

// Room errors (ROOM).
var (
	// ErrRoomNotFound indicates the requested room is not resident.
	ErrRoomNotFound = NewDomainError("IR-ROOM-4040", "room not found")

	// ErrRoomValidation indicates room state validation failed.
	ErrRoomValidation = NewDomainError("IR-ROOM-4001", "room validation failed")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("IR-SYS-5000", "internal server error")

	// ErrStorageError indicates a storage layer error.
	ErrStorageError = NewDomainError("IR-SYS-5001", "storage error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("IR-SYS-4000", "bad request")
)
