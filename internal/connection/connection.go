package connection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/castle-go/internal/core/completion"
	"github.com/yndnr/castle-go/internal/core/domain"
	"github.com/yndnr/castle-go/internal/driver"
	"github.com/yndnr/castle-go/internal/infra/deadman"
	"github.com/yndnr/castle-go/internal/telemetry/logger"
	"github.com/yndnr/castle-go/internal/telemetry/metric"
	"github.com/yndnr/castle-go/internal/telemetry/progress"
)

// Connection is a driver session with its completion pipeline.
type Connection struct {
	id     string
	drv    driver.Driver
	logger logger.Logger

	queue    *completion.Queue
	alloc    *completion.Allocator
	refs     completion.Refs
	producer *completion.Producer
	consumer *completion.Consumer
	watchdog *deadman.Switch

	work      *progress.WorkTracker
	bandwidth *progress.ByteRate
	delivered atomic.Uint64
	bytes     atomic.Uint64

	closed   atomic.Bool
	stopOnce sync.Once
	stopErr  error
}

// Connect starts a pipeline over drv. The connection takes ownership of drv
// and closes it on Disconnect.
func Connect(drv driver.Driver, opts Options) (*Connection, error) {
	if drv == nil {
		return nil, domain.ErrInvalidArgument.WithDetails("nil driver")
	}
	opts.applyDefaults()

	id := ulid.Make().String()
	log := opts.Logger.With("connection_id", id)

	c := &Connection{
		id:        id,
		drv:       drv,
		logger:    log,
		queue:     completion.NewQueue(opts.QueueCapacity),
		alloc:     completion.NewAllocator(opts.NodeLimit),
		work:      progress.NewWorkTracker(opts.ProgressWindow),
		bandwidth: progress.NewByteRate(opts.ProgressWindow),
	}

	observers := completion.Observers{deliveryTracker{c}}
	if opts.Registerer != nil {
		observers = append(observers, metric.NewPipeline(opts.Registerer))
		opts.Registerer.MustRegister(metric.NewCollector(c.snapshot))
	}

	c.producer = completion.NewProducer(c.queue, c.alloc,
		completion.WithProducerObserver(observers),
		completion.WithProducerLogger(log.Slog()))

	consumerOpts := []completion.ConsumerOption{
		completion.WithConsumerObserver(observers),
		completion.WithConsumerLogger(log.Slog()),
		completion.WithFailureLogRates(opts.FailureLogRates),
	}

	if opts.WatchdogPeriod > 0 {
		consumerOpts = append(consumerOpts, completion.WithHeartbeat(func() {
			c.watchdog.Heartbeat()
		}))
	}
	c.consumer = completion.NewConsumer(c.queue, c.alloc, consumerOpts...)

	if opts.WatchdogPeriod > 0 {
		c.watchdog = deadman.New(opts.WatchdogPeriod,
			deadman.WithBusy(c.consumer.Busy),
			deadman.WithAction(opts.WatchdogAction),
			deadman.WithLogger(log.Slog()))
	}

	if err := c.consumer.Start(); err != nil {
		return nil, err
	}
	if c.watchdog != nil {
		c.watchdog.Start()
	}

	log.Info("connection established",
		"queue_capacity", opts.QueueCapacity,
		"node_limit", opts.NodeLimit,
		"watchdog", opts.WatchdogPeriod)
	return c, nil
}

// ID returns the connection's identifier.
func (c *Connection) ID() string {
	return c.id
}

// Submit hands req to the driver. cb runs exactly once on the consumer
// goroutine when the request completes, unless the completion is lost to
// the node limit or arrives after the queue has shut down.
//
// Buffers referenced by req belong to the driver until cb runs.
func (c *Connection) Submit(ctx context.Context, req *domain.Request, cb domain.Callback) (string, error) {
	if cb == nil {
		return "", domain.ErrNilCallback
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.closed.Load() {
		return "", domain.ErrNotConnected
	}

	reqID := ulid.Make().String()
	rc := c.producer.Context(c.refs.Retain(cb))
	if err := c.drv.Submit(req, rc); err != nil {
		rc.Abandon()
		logger.L(logger.WithRequestID(ctx, reqID)).Debug("submit refused",
			"connection_id", c.id,
			"kind", req.Kind.String(),
			"error", err)
		return "", err
	}
	return reqID, nil
}

// Closed reports whether Disconnect has been called.
func (c *Connection) Closed() bool {
	return c.closed.Load()
}

// Disconnect stops new submissions, lets the driver complete what it has
// accepted, drains the queue and stops the consumer. It is safe to call more
// than once and on a nil connection.
func (c *Connection) Disconnect() error {
	if c == nil {
		return nil
	}
	c.stopOnce.Do(func() {
		c.closed.Store(true)
		start := time.Now()

		c.stopErr = c.drv.Close()
		if c.stopErr != nil {
			c.logger.Error("driver close failed", "error", c.stopErr)
		}

		c.queue.Shutdown()
		<-c.consumer.Done()
		if c.watchdog != nil {
			c.watchdog.Disable()
		}
		c.queue.Destroy()

		c.logger.Info("connection closed",
			"delivered", c.delivered.Load(),
			"dropped", c.alloc.Failed(),
			"live_handles", c.refs.Live(),
			"elapsed", time.Since(start))
	})
	return c.stopErr
}

// Stats is a point-in-time view of a connection.
type Stats struct {
	Queue          completion.Stats
	Outstanding    int64
	LiveHandles    int64
	AllocFailures  uint64
	Delivered      uint64
	DeliveredBytes uint64
	DeliveryRate   float64 // completions per second
	ByteRate       float64 // bytes per second
}

// Stats returns current connection statistics.
func (c *Connection) Stats() Stats {
	return Stats{
		Queue:          c.queue.Stats(),
		Outstanding:    c.alloc.Outstanding(),
		LiveHandles:    c.refs.Live(),
		AllocFailures:  c.alloc.Failed(),
		Delivered:      c.delivered.Load(),
		DeliveredBytes: c.bytes.Load(),
		DeliveryRate:   c.work.Rate(),
		ByteRate:       c.bandwidth.Rate(),
	}
}

func (c *Connection) snapshot() metric.Snapshot {
	qs := c.queue.Stats()
	s := metric.Snapshot{
		QueueDepth:    qs.Len,
		QueueCapacity: qs.Capacity,
		Outstanding:   c.alloc.Outstanding(),
		LiveHandles:   c.refs.Live(),
		AllocFailures: c.alloc.Failed(),
	}
	if sz, ok := c.drv.(sizer); ok {
		s.LSMSize, s.ValueLogSize = sz.Size()
	}
	return s
}

// sizer is implemented by drivers that can report their store size.
type sizer interface {
	Size() (lsm, vlog int64)
}

// deliveryTracker feeds the progress estimators.
type deliveryTracker struct {
	c *Connection
}

func (deliveryTracker) Pushed()         {}
func (deliveryTracker) Rejected()       {}
func (deliveryTracker) Dropped()        {}
func (deliveryTracker) DeliveryFailed() {}

func (t deliveryTracker) Delivered(comp domain.Completion, _ time.Duration) {
	t.c.delivered.Add(1)
	t.c.work.Add(1)
	if comp.Status == domain.StatusOK {
		t.c.bandwidth.Observe(t.c.bytes.Add(comp.Length))
	}
}
