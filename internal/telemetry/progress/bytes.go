package progress

import (
	"sync"
	"time"
)

type sample struct {
	at    time.Time
	total uint64
}

// ByteRate turns an accumulating byte count into a bandwidth estimate.
type ByteRate struct {
	mu      sync.Mutex
	samples []sample
	memory  time.Duration
	now     func() time.Time
}

// NewByteRate creates a ByteRate keeping samples for memory.
func NewByteRate(memory time.Duration) *ByteRate {
	return &ByteRate{memory: memory, now: time.Now}
}

// Observe records the current value of the counter.
func (b *ByteRate) Observe(total uint64) {
	now := b.now()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, sample{at: now, total: total})
	b.purgeLocked(now)
}

// Rate returns bytes per second between the oldest and newest samples in
// the window, or zero with fewer than two samples.
func (b *ByteRate) Rate() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.purgeLocked(b.now())

	if len(b.samples) < 2 {
		return 0
	}
	first, last := b.samples[0], b.samples[len(b.samples)-1]
	dt := last.at.Sub(first.at)
	if dt <= 0 || last.total < first.total {
		return 0
	}
	return float64(last.total-first.total) / dt.Seconds()
}

func (b *ByteRate) purgeLocked(now time.Time) {
	cutoff := now.Add(-b.memory)
	i := 0
	for i < len(b.samples) && b.samples[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		b.samples = append(b.samples[:0], b.samples[i:]...)
	}
}
