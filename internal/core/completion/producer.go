package completion

import (
	"log/slog"
	"time"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// Outcome is what happened to a completion handed to the producer.
type Outcome int

const (
	// Queued means the completion is waiting for delivery.
	Queued Outcome = iota
	// Discarded means the queue was shutting down; the handle was released
	// without running the callback.
	Discarded
	// Dropped means no node could be allocated; the completion is lost.
	Dropped
)

// Producer is the driver-facing side of the pipeline. Complete may be called
// concurrently from any number of driver goroutines.
type Producer struct {
	queue  *Queue
	alloc  *Allocator
	obs    Observer
	logger *slog.Logger
	now    func() time.Time
}

// ProducerOption configures a Producer.
type ProducerOption func(*Producer)

// WithProducerObserver sets the event observer.
func WithProducerObserver(obs Observer) ProducerOption {
	return func(p *Producer) {
		if obs != nil {
			p.obs = obs
		}
	}
}

// WithProducerLogger sets the logger.
func WithProducerLogger(logger *slog.Logger) ProducerOption {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProducer creates a producer pushing into q with nodes from a.
func NewProducer(q *Queue, a *Allocator, opts ...ProducerOption) *Producer {
	p := &Producer{
		queue:  q,
		alloc:  a,
		obs:    nopObserver{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Complete copies c into a node that takes ownership of h, and pushes it.
//
// c may point at memory the driver reuses once Complete returns; only the
// copy is kept. Complete blocks while the queue is full and never invokes
// the callback itself.
func (p *Producer) Complete(c *domain.Completion, h *Handle) Outcome {
	if h == nil {
		// a second notification for the same request
		p.logger.Warn("completion without callback handle ignored")
		p.obs.Dropped()
		return Dropped
	}

	n := p.alloc.alloc()
	if n == nil {
		// The request's callback will never run. Kept as-is: the driver gives
		// us no way to report this back.
		h.Release()
		p.obs.Dropped()
		p.logger.Warn("completion dropped: node allocation failed",
			"status", c.Status.String(),
			"outstanding", p.alloc.Outstanding())
		return Dropped
	}

	n.handle = h
	n.completion = *c
	n.enqueued = p.now()

	if p.queue.Push(n) == Rejected {
		n.takeHandle().Release()
		p.alloc.free(n)
		p.obs.Rejected()
		p.logger.Debug("completion rejected: queue shut down")
		return Discarded
	}

	p.obs.Pushed()
	return Queued
}

// Context returns the per-request context handed to the driver. It owns h
// until the driver notifies it.
func (p *Producer) Context(h *Handle) *RequestContext {
	return &RequestContext{producer: p, handle: h}
}

// RequestContext is the opaque value a driver carries from submission to
// completion. It satisfies the driver's Notifier interface.
type RequestContext struct {
	producer *Producer
	handle   *Handle
}

// Notify is called by the driver, once, when the request completes.
func (rc *RequestContext) Notify(c *domain.Completion) {
	h := rc.handle
	rc.handle = nil
	rc.producer.Complete(c, h)
}

// Abandon releases the handle of a request the driver never accepted.
func (rc *RequestContext) Abandon() {
	if rc.handle != nil {
		rc.handle.Release()
		rc.handle = nil
	}
}
