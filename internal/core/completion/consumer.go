package completion

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	catrate "github.com/joeycumines/go-catrate"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// ErrConsumerStarted is returned when a second delivery loop is started on
// the same consumer.
var ErrConsumerStarted = errors.New("completion: consumer already started")

// PanicError wraps a value recovered from a panicking callback.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("callback panic: %v", e.Value)
}

// Consumer is the single delivery goroutine of a queue.
type Consumer struct {
	queue     *Queue
	alloc     *Allocator
	obs       Observer
	logger    *slog.Logger
	limiter   *catrate.Limiter
	heartbeat func()
	now       func() time.Time

	started    atomic.Bool
	delivering atomic.Bool
	done       chan struct{}
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithConsumerObserver sets the event observer.
func WithConsumerObserver(obs Observer) ConsumerOption {
	return func(c *Consumer) {
		if obs != nil {
			c.obs = obs
		}
	}
}

// WithConsumerLogger sets the logger.
func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeartbeat sets a function called after every delivery.
func WithHeartbeat(fn func()) ConsumerOption {
	return func(c *Consumer) {
		c.heartbeat = fn
	}
}

// WithFailureLogRates limits how often swallowed callback failures are
// logged. A nil or empty map logs every failure.
func WithFailureLogRates(rates map[time.Duration]int) ConsumerOption {
	return func(c *Consumer) {
		if len(rates) == 0 {
			c.limiter = nil
			return
		}
		c.limiter = catrate.NewLimiter(rates)
	}
}

// DefaultFailureLogRates is the failure log limit used unless overridden.
var DefaultFailureLogRates = map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
}

// NewConsumer creates a consumer draining q and freeing nodes into a.
func NewConsumer(q *Queue, a *Allocator, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		queue:   q,
		alloc:   a,
		obs:     nopObserver{},
		logger:  slog.Default(),
		limiter: catrate.NewLimiter(DefaultFailureLogRates),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start runs the delivery loop in a new goroutine.
func (c *Consumer) Start() error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrConsumerStarted
	}
	go c.loop()
	return nil
}

// Run runs the delivery loop on the calling goroutine until the queue is
// shut down and drained.
func (c *Consumer) Run() error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrConsumerStarted
	}
	c.loop()
	return nil
}

// Done is closed when the delivery loop has exited.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}

// Busy reports whether the consumer is inside a callback or has nodes
// waiting.
func (c *Consumer) Busy() bool {
	return c.delivering.Load() || c.queue.Len() > 0
}

func (c *Consumer) loop() {
	defer close(c.done)
	c.logger.Debug("completion consumer started")

	for {
		n, ok := c.queue.Pop()
		if !ok {
			break
		}
		c.deliver(n)
	}

	c.logger.Debug("completion consumer stopped")
}

// deliver hands one node to its callback. The handle and the node are
// released on every path.
func (c *Consumer) deliver(n *Node) {
	c.delivering.Store(true)

	h := n.takeHandle()
	comp := n.completion
	wait := c.now().Sub(n.enqueued)

	defer func() {
		h.Release()
		c.alloc.free(n)
		c.delivering.Store(false)
		c.guard("delivered hook", func() { c.obs.Delivered(comp, wait) })
		if c.heartbeat != nil {
			c.guard("heartbeat", c.heartbeat)
		}
	}()

	if err := invoke(h.Callback(), domain.NewResponse(comp)); err != nil {
		c.guard("failure hook", c.obs.DeliveryFailed)
		if _, ok := c.limiter.Allow("delivery_failure"); ok {
			c.logger.Warn("completion callback failed",
				"status", comp.Status.String(),
				"error", err)
		}
	}
}

// guard runs an observer or heartbeat hook. A panic there is logged and
// dropped so the consumer keeps draining.
func (c *Consumer) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("consumer hook panicked", "hook", name, "panic", r)
		}
	}()
	fn()
}

// invoke runs the callback contract. A panic aborts the remaining steps and
// is returned as a *PanicError.
func invoke(cb domain.Callback, resp domain.Response) (err error) {
	if cb == nil {
		return errors.New("callback released before delivery")
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	cb.SetResponse(resp)
	cb.SetError(resp.Status)
	return cb.Run()
}
