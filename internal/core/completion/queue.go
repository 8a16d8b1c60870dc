package completion

import (
	"fmt"
	"sync"
)

// PushResult is the outcome of Queue.Push.
type PushResult int

const (
	// Accepted means the node was appended and now belongs to the queue.
	Accepted PushResult = iota
	// Rejected means the queue is shutting down; the caller still owns the
	// node.
	Rejected
)

// String returns the result name.
func (r PushResult) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("push_result(%d)", int(r))
	}
}

// State is the lifecycle state of a Queue, derived from its capacity and
// length.
type State int

const (
	// StateOpen accepts pushes.
	StateOpen State = iota
	// StateDraining rejects pushes but still holds queued nodes.
	StateDraining
	// StateClosed rejects pushes and is empty.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Stats is a point-in-time view of a Queue.
type Stats struct {
	Len      int
	Capacity int
	State    State
}

// Queue is a bounded, multi-producer FIFO of completion nodes.
//
// A capacity of zero is the shutdown marker: once Shutdown sets it, Push
// rejects and Pop returns end-of-stream as soon as the queue is empty.
// There is no per-call timeout; Shutdown is the only way to unblock waiters.
type Queue struct {
	mu       sync.Mutex
	notFull  sync.Cond
	notEmpty sync.Cond

	head     *Node
	tail     *Node
	count    int
	capacity int
	limit    int // capacity at creation, for reporting
}

// NewQueue creates an open queue holding at most capacity nodes.
// It panics if capacity is not positive.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		panic(fmt.Sprintf("completion: invalid queue capacity %d", capacity))
	}
	q := &Queue{
		capacity: capacity,
		limit:    capacity,
	}
	q.notFull.L = &q.mu
	q.notEmpty.L = &q.mu
	return q
}

// Push appends n at the tail, blocking while the queue is full.
//
// If the queue is, or becomes, shut down before there is room, Push returns
// Rejected without enqueuing and ownership of n stays with the caller.
func (q *Queue) Push(n *Node) PushResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count >= q.capacity && q.capacity > 0 {
		q.notFull.Wait()
	}
	if q.capacity == 0 {
		return Rejected
	}

	n.next = nil
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.count++

	q.notEmpty.Signal()
	return Accepted
}

// Pop removes the head node, blocking while the queue is empty and open.
// It returns (nil, false) once the queue is shut down and fully drained.
func (q *Queue) Pop() (*Node, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.head == nil && q.capacity > 0 {
		q.notEmpty.Wait()
	}
	if q.head == nil {
		return nil, false
	}

	n := q.head
	q.head = n.next
	if q.head == nil {
		q.tail = nil
	}
	n.next = nil
	q.count--

	if q.capacity == 0 {
		// only Shutdown waits on notFull while draining
		q.notFull.Broadcast()
	} else {
		q.notFull.Signal()
	}
	return n, true
}

// Shutdown stops the queue accepting nodes and blocks until every node
// already queued has been popped. Producers blocked in Push return Rejected;
// the consumer keeps draining and then observes end-of-stream.
//
// Calling Shutdown on a nil queue, or again on a queue that is already closed
// and empty, returns immediately. Concurrent Shutdown calls are not supported.
func (q *Queue) Shutdown() {
	if q == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.capacity = 0
	q.notFull.Broadcast()
	q.notEmpty.Broadcast()

	for q.count > 0 {
		q.notFull.Wait()
	}
}

// Destroy drops the queue's internal references. It must only be called
// after Shutdown has returned and no producer or consumer still uses q;
// anything else is the owner's bug.
func (q *Queue) Destroy() {
	if q == nil {
		return
	}
	q.mu.Lock()
	q.head = nil
	q.tail = nil
	q.count = 0
	q.mu.Unlock()
}

// Len returns the number of queued nodes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats returns the current length, configured capacity and state.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Len:      q.count,
		Capacity: q.limit,
		State:    q.stateLocked(),
	}
}

// State returns the lifecycle state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stateLocked()
}

func (q *Queue) stateLocked() State {
	switch {
	case q.capacity > 0:
		return StateOpen
	case q.count > 0:
		return StateDraining
	default:
		return StateClosed
	}
}
