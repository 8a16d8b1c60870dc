package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a bridge error with a structured error code.
// Codes follow the CS-<AREA>-<NNNN> convention.
type DomainError struct {
	Code    string // Error code (e.g., "CS-DRV-4040")
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

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Driver Errors (DRV)
// ============================================================================

var (
	// ErrNotFound indicates the key does not exist in the collection.
	ErrNotFound = NewDomainError("CS-DRV-4040", "key not found")

	// ErrInvalidRequest indicates the driver rejected the request layout.
	ErrInvalidRequest = NewDomainError("CS-DRV-4000", "invalid request")

	// ErrBufferTooSmall indicates the caller buffer cannot hold the value.
	ErrBufferTooSmall = NewDomainError("CS-DRV-4130", "buffer too small")

	// ErrNoSpace indicates the driver ran out of space.
	ErrNoSpace = NewDomainError("CS-DRV-5070", "no space left")

	// ErrIO indicates an I/O failure inside the driver.
	ErrIO = NewDomainError("CS-DRV-5001", "driver i/o error")

	// ErrOutOfMemory indicates the driver failed to allocate.
	ErrOutOfMemory = NewDomainError("CS-DRV-5002", "driver out of memory")

	// ErrUnknownToken indicates a continuation token the driver does not know.
	ErrUnknownToken = NewDomainError("CS-DRV-4041", "unknown continuation token")

	// ErrDriverClosed indicates the driver no longer accepts requests.
	ErrDriverClosed = NewDomainError("CS-DRV-5030", "driver closed")
)

// ============================================================================
// Connection Errors (CONN)
// ============================================================================

var (
	// ErrNotConnected indicates the connection was never established or has
	// been disconnected.
	ErrNotConnected = NewDomainError("CS-CONN-5030", "not connected")

	// ErrNilCallback indicates an asynchronous submission without a callback.
	ErrNilCallback = NewDomainError("CS-CONN-4001", "nil callback")

	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("CS-CONN-4000", "invalid argument")
)

// ============================================================================
// Status mapping
// ============================================================================

// CodeToError converts a driver status code into an error. StatusOK maps to
// nil, unknown codes to a generic ErrIO carrying the raw code.
func CodeToError(code Status) error {
	switch code {
	case StatusOK:
		return nil
	case StatusNotFound:
		return ErrNotFound
	case StatusInvalid:
		return ErrInvalidRequest
	case StatusTooBig:
		return ErrBufferTooSmall
	case StatusNoSpace:
		return ErrNoSpace
	case StatusIO:
		return ErrIO
	case StatusNoMemory:
		return ErrOutOfMemory
	case StatusBadToken:
		return ErrUnknownToken
	case StatusShutdown:
		return ErrDriverClosed
	default:
		return ErrIO.WithDetails(fmt.Sprintf("status %d", int32(code)))
	}
}
