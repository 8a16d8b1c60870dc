package domain

import "fmt"

// Kind identifies a driver request type.
type Kind uint8

// Request kinds understood by the driver.
const (
	KindGet Kind = iota + 1
	KindPut
	KindRemove
	KindIterStart
	KindIterNext
	KindIterFinish
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindGet:
		return "get"
	case KindPut:
		return "put"
	case KindRemove:
		return "remove"
	case KindIterStart:
		return "iter_start"
	case KindIterNext:
		return "iter_next"
	case KindIterFinish:
		return "iter_finish"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// CollectionID names a driver collection (an independent key space).
type CollectionID uint32

// MaxKeySize is the largest key the driver accepts.
const MaxKeySize = 512

// Request is one driver request. Buffers referenced by a request are owned by
// the caller and must stay untouched until the request completes.
type Request struct {
	Kind       Kind
	Collection CollectionID

	// Key is the lookup key (Get, Put, Remove) or the inclusive start of the
	// range (IterStart).
	Key []byte

	// EndKey is the exclusive end of an iterator range; nil means unbounded.
	EndKey []byte

	// Value is the payload for Put.
	Value []byte

	// Buffer receives the value for Get or an encoded batch for IterNext.
	Buffer []byte

	// Token continues an iterator (IterNext, IterFinish).
	Token uint64
}

// Validate checks the request layout before it is handed to a driver.
func (r *Request) Validate() error {
	if r == nil {
		return ErrInvalidRequest.WithDetails("nil request")
	}
	switch r.Kind {
	case KindGet:
		if err := validateKey(r.Key); err != nil {
			return err
		}
		if len(r.Buffer) == 0 {
			return ErrInvalidRequest.WithDetails("get requires a buffer")
		}
	case KindPut:
		if err := validateKey(r.Key); err != nil {
			return err
		}
	case KindRemove:
		if err := validateKey(r.Key); err != nil {
			return err
		}
	case KindIterStart:
		if len(r.Key) > MaxKeySize || len(r.EndKey) > MaxKeySize {
			return ErrInvalidRequest.WithDetails("range key too long")
		}
	case KindIterNext:
		if r.Token == 0 {
			return ErrInvalidRequest.WithDetails("iter_next requires a token")
		}
		if len(r.Buffer) == 0 {
			return ErrInvalidRequest.WithDetails("iter_next requires a buffer")
		}
	case KindIterFinish:
		if r.Token == 0 {
			return ErrInvalidRequest.WithDetails("iter_finish requires a token")
		}
	default:
		return ErrInvalidRequest.WithDetails("unknown kind " + r.Kind.String())
	}
	return nil
}

func validateKey(key []byte) error {
	if len(key) == 0 {
		return ErrInvalidRequest.WithDetails("empty key")
	}
	if len(key) > MaxKeySize {
		return ErrInvalidRequest.WithDetails(fmt.Sprintf("key length %d exceeds %d", len(key), MaxKeySize))
	}
	return nil
}
