package domain

import (
	"fmt"
	"time"
)

// Status is the driver's completion status code. Values mirror the errno
// numbers the storage driver reports; zero is success.
type Status int32

// Driver status codes.
const (
	StatusOK       Status = 0
	StatusNotFound Status = 2
	StatusIO       Status = 5
	StatusTooBig   Status = 7
	StatusBadToken Status = 9
	StatusNoMemory Status = 12
	StatusInvalid  Status = 22
	StatusNoSpace  Status = 28
	StatusShutdown Status = 108
)

// String returns a short name for the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusIO:
		return "io"
	case StatusTooBig:
		return "too_big"
	case StatusBadToken:
		return "bad_token"
	case StatusNoMemory:
		return "no_memory"
	case StatusInvalid:
		return "invalid"
	case StatusNoSpace:
		return "no_space"
	case StatusShutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Completion is the fixed-size record the driver hands to a completion
// notification. The driver may reuse the memory behind it as soon as the
// notification returns, so consumers copy it by value.
type Completion struct {
	// Status is zero on success.
	Status Status

	// Length is the number of bytes the driver wrote into the request
	// buffer (or, for a value that did not fit, the size it needs).
	Length uint64

	// Token is the continuation token for iterator requests, zero otherwise.
	Token uint64

	// Timestamp is the driver-side version timestamp in Unix nanoseconds.
	// Zero means the driver did not report one.
	Timestamp uint64
}

// Response is the caller-visible view of a completion.
type Response struct {
	Status    Status
	Length    uint64
	Token     uint64
	Timestamp time.Time
}

// NewResponse builds a Response from a completion record.
func NewResponse(c Completion) Response {
	r := Response{
		Status: c.Status,
		Length: c.Length,
		Token:  c.Token,
	}
	if c.Timestamp != 0 {
		r.Timestamp = time.Unix(0, int64(c.Timestamp))
	}
	return r
}

// OK reports whether the request succeeded.
func (r Response) OK() bool {
	return r.Status == StatusOK
}

// HasTimestamp reports whether the driver supplied a timestamp.
func (r Response) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// Err converts the status into an error, nil on success.
func (r Response) Err() error {
	return CodeToError(r.Status)
}
