package loopback

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/castle-go/internal/core/domain"
	"github.com/yndnr/castle-go/internal/driver"
)

// Driver is an in-process driver.Driver backed by Badger.
type Driver struct {
	db     *badger.DB
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	// mu guards closed and the worker channels against Close.
	mu      sync.RWMutex
	closed  bool
	workers []chan job
	wg      sync.WaitGroup

	itersMu   sync.Mutex
	iters     map[uint64]*iterState
	nextToken atomic.Uint64

	submitted atomic.Uint64
	completed atomic.Uint64

	stopCh chan struct{}
	gcDone chan struct{}
}

var _ driver.Driver = (*Driver)(nil)

type job struct {
	req *domain.Request
	n   driver.Notifier
}

// Open opens the Badger store and starts the completion workers.
func Open(cfg Config) (*Driver, error) {
	cfg.applyDefaults()
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, fmt.Errorf("loopback: dir is required")
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: cfg.Logger}
	opts.SyncWrites = cfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("loopback: open badger: %w", err)
	}

	d := &Driver{
		db:      db,
		cfg:     cfg,
		logger:  cfg.Logger,
		now:     time.Now,
		workers: make([]chan job, cfg.Workers),
		iters:   make(map[uint64]*iterState),
		stopCh:  make(chan struct{}),
		gcDone:  make(chan struct{}),
	}

	for i := range d.workers {
		ch := make(chan job, cfg.WorkerQueue)
		d.workers[i] = ch
		d.wg.Add(1)
		go d.worker(ch)
	}

	if cfg.InMemory {
		close(d.gcDone)
	} else {
		go d.gcLoop()
	}

	d.logger.Info("loopback driver started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"workers", cfg.Workers)

	return d, nil
}

// Submit validates req and hands it to the worker owning its key.
func (d *Driver) Submit(req *domain.Request, n driver.Notifier) error {
	if n == nil {
		return domain.ErrInvalidRequest.WithDetails("nil notifier")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return domain.ErrDriverClosed
	}

	d.submitted.Add(1)
	d.workers[d.shard(req)] <- job{req: req, n: n}
	return nil
}

// Exec runs req on the calling goroutine.
func (d *Driver) Exec(ctx context.Context, req *domain.Request) (domain.Completion, error) {
	if err := ctx.Err(); err != nil {
		return domain.Completion{}, err
	}
	if err := req.Validate(); err != nil {
		return domain.Completion{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return domain.Completion{}, domain.ErrDriverClosed
	}

	return d.execute(req), nil
}

// Close stops accepting requests, completes everything already submitted,
// then closes the store.
func (d *Driver) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()

	d.wg.Wait()
	close(d.stopCh)
	<-d.gcDone

	if err := d.db.Close(); err != nil {
		return fmt.Errorf("loopback: close badger: %w", err)
	}

	d.logger.Info("loopback driver stopped",
		"submitted", d.submitted.Load(),
		"completed", d.completed.Load())
	return nil
}

// Stats reports request counters and store size.
type Stats struct {
	Submitted    uint64
	Completed    uint64
	OpenIters    int
	LSMSize      int64
	ValueLogSize int64
}

// Stats returns current driver statistics.
func (d *Driver) Stats() Stats {
	d.itersMu.Lock()
	open := len(d.iters)
	d.itersMu.Unlock()

	lsm, vlog := d.db.Size()
	return Stats{
		Submitted:    d.submitted.Load(),
		Completed:    d.completed.Load(),
		OpenIters:    open,
		LSMSize:      lsm,
		ValueLogSize: vlog,
	}
}

func (d *Driver) worker(ch <-chan job) {
	defer d.wg.Done()
	for j := range ch {
		c := d.execute(j.req)
		d.completed.Add(1)
		j.n.Notify(&c)
	}
}

// shard picks the worker for a request. Iterator requests hash their token
// so every step of one iterator runs on the same worker.
func (d *Driver) shard(req *domain.Request) int {
	var h uint32
	switch req.Kind {
	case domain.KindIterNext, domain.KindIterFinish:
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], req.Token)
		h = murmur3.Sum32(b[:])
	default:
		h = murmur3.Sum32WithSeed(req.Key, uint32(req.Collection))
	}
	return int(h % uint32(len(d.workers)))
}

// gcLoop runs periodic value-log garbage collection.
func (d *Driver) gcLoop() {
	defer close(d.gcDone)

	ticker := time.NewTicker(d.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.runGC()
		case <-d.stopCh:
			return
		}
	}
}

func (d *Driver) runGC() {
	start := time.Now()
	rounds := 0
	for {
		err := d.db.RunValueLogGC(d.cfg.GCThreshold)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				d.logger.Error("value log gc failed", "error", err)
			}
			break
		}
		rounds++
	}
	d.logger.Debug("value log gc completed",
		"rounds", rounds,
		"elapsed", time.Since(start))
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Size returns the LSM tree and value log sizes in bytes.
func (d *Driver) Size() (lsm, vlog int64) {
	return d.db.Size()
}
