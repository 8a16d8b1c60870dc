package completion

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// Node carries one completion through the queue. It owns its Handle and a
// by-value copy of the driver's completion record.
type Node struct {
	next       *Node
	handle     *Handle
	completion domain.Completion
	enqueued   time.Time
	live       bool
}

// Completion returns the copied completion record.
func (n *Node) Completion() domain.Completion {
	return n.completion
}

// takeHandle moves the handle out of the node.
func (n *Node) takeHandle() *Handle {
	h := n.handle
	n.handle = nil
	return h
}

// Allocator hands out nodes and keeps count of the ones not yet freed.
//
// A positive limit caps the number of outstanding nodes; alloc returns nil
// once the cap is reached, which the producer treats as allocation failure.
type Allocator struct {
	pool        sync.Pool
	limit       int64
	outstanding atomic.Int64
	allocated   atomic.Uint64
	failed      atomic.Uint64
}

// NewAllocator creates an allocator. limit <= 0 means unbounded.
func NewAllocator(limit int) *Allocator {
	a := &Allocator{limit: int64(limit)}
	a.pool.New = func() any { return new(Node) }
	return a
}

func (a *Allocator) alloc() *Node {
	if n := a.outstanding.Add(1); a.limit > 0 && n > a.limit {
		a.outstanding.Add(-1)
		a.failed.Add(1)
		return nil
	}
	a.allocated.Add(1)
	n := a.pool.Get().(*Node)
	n.live = true
	return n
}

func (a *Allocator) free(n *Node) {
	if !n.live {
		panic("completion: node freed twice")
	}
	*n = Node{}
	a.outstanding.Add(-1)
	a.pool.Put(n)
}

// Outstanding returns the number of nodes allocated and not yet freed.
func (a *Allocator) Outstanding() int64 {
	return a.outstanding.Load()
}

// Allocated returns the total number of successful allocations.
func (a *Allocator) Allocated() uint64 {
	return a.allocated.Load()
}

// Failed returns the number of allocations refused by the limit.
func (a *Allocator) Failed() uint64 {
	return a.failed.Load()
}
