package progress

import (
	"sync"
	"time"
)

type workItem struct {
	start time.Time
	end   time.Time
	size  float64
}

// inWindow returns the part of the item done between from and to.
func (w workItem) inWindow(from, to time.Time) float64 {
	if from.After(w.end) || to.Before(w.start) {
		return 0
	}
	s, e := w.start, w.end
	if from.After(s) {
		s = from
	}
	if to.Before(e) {
		e = to
	}
	span := w.end.Sub(w.start)
	return w.size * float64(e.Sub(s)) / float64(span)
}

// WorkTracker reports the rate at which work is being done. Items must be
// added in increasing order of end time.
type WorkTracker struct {
	mu     sync.Mutex
	items  []workItem
	memory time.Duration
	total  float64
	now    func() time.Time
}

// NewWorkTracker creates a tracker that remembers items ending within
// memory of now.
func NewWorkTracker(memory time.Duration) *WorkTracker {
	return &WorkTracker{memory: memory, now: time.Now}
}

// Add records work done at this instant.
func (t *WorkTracker) Add(work float64) {
	now := t.now()
	t.AddInterval(now.Add(-time.Millisecond), now, work)
}

// AddSince records work done between start and now.
func (t *WorkTracker) AddSince(start time.Time, work float64) {
	t.AddInterval(start, t.now(), work)
}

// AddInterval records work done between start and end.
func (t *WorkTracker) AddInterval(start, end time.Time, work float64) {
	if !start.Before(end) {
		start = end.Add(-time.Millisecond)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = append(t.items, workItem{start: start, end: end, size: work})
	t.total += work
	t.purgeLocked(t.now().Add(-t.memory))
}

// Rate returns the work per second over the tracker's full memory.
func (t *WorkTracker) Rate() float64 {
	return t.RateOver(t.memory)
}

// RateOver returns the work per second over the last window, which should
// not exceed the tracker's memory.
func (t *WorkTracker) RateOver(window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	to := t.now()
	from := to.Add(-window)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.purgeLocked(to.Add(-t.memory))

	var w float64
	for _, it := range t.items {
		w += it.inWindow(from, to)
	}
	return w / window.Seconds()
}

// Total returns the sum of all work ever added.
func (t *WorkTracker) Total() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

func (t *WorkTracker) purgeLocked(cutoff time.Time) {
	i := 0
	for i < len(t.items) && t.items[i].end.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.items = append(t.items[:0], t.items[i:]...)
	}
}
