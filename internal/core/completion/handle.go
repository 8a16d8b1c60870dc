package completion

import (
	"sync/atomic"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// Refs counts callback handles that have been retained and not released.
// A connection keeps one Refs; a non-zero count after Disconnect is a leak.
type Refs struct {
	live atomic.Int64
}

// Retain wraps cb in a Handle owned by the caller.
func (r *Refs) Retain(cb domain.Callback) *Handle {
	r.live.Add(1)
	return &Handle{cb: cb, refs: r}
}

// Live returns the number of handles not yet released.
func (r *Refs) Live() int64 {
	return r.live.Load()
}

// Handle is the owned reference to a request's callback. It moves from the
// request context into a node, and from the node to the consumer; the last
// owner calls Release.
type Handle struct {
	cb       domain.Callback
	refs     *Refs
	released atomic.Bool
}

// Callback returns the wrapped callback, or nil once released.
func (h *Handle) Callback() domain.Callback {
	if h.released.Load() {
		return nil
	}
	return h.cb
}

// Release drops the reference. It reports false if the handle had already
// been released, so a second release is harmless and detectable.
func (h *Handle) Release() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}
	h.cb = nil
	h.refs.live.Add(-1)
	return true
}
