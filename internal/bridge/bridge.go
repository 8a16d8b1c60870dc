package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/castle-go/internal/bridge/config"
	"github.com/yndnr/castle-go/internal/connection"
	"github.com/yndnr/castle-go/internal/core/completion"
	"github.com/yndnr/castle-go/internal/core/domain"
	"github.com/yndnr/castle-go/internal/driver/loopback"
	"github.com/yndnr/castle-go/internal/telemetry/logger"
)

// Options carries the runtime pieces that do not come from configuration.
type Options struct {
	// Registerer receives pipeline metrics. Nil disables them.
	Registerer prometheus.Registerer

	// Logger defaults to logger.Default().
	Logger logger.Logger

	// OnWatchdog runs when the dead man switch trips and the configuration
	// does not ask for the process to exit.
	OnWatchdog func()
}

// Bridge is an open driver with the connection delivering its completions.
type Bridge struct {
	Driver *loopback.Driver
	Conn   *connection.Connection
}

// Open starts the configured driver and connects a pipeline to it.
func Open(cfg *config.BridgeConfig, opts Options) (*Bridge, error) {
	if cfg.Driver.Kind != config.DriverLoopback {
		return nil, fmt.Errorf("bridge: unsupported driver kind %q", cfg.Driver.Kind)
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}

	drv, err := loopback.Open(DriverConfig(cfg, opts.Logger))
	if err != nil {
		return nil, err
	}
	conn, err := connection.Connect(drv, ConnectionOptions(cfg, opts))
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("bridge: connect: %w", err)
	}
	return &Bridge{Driver: drv, Conn: conn}, nil
}

// Close disconnects the pipeline, which also closes the driver.
func (b *Bridge) Close() error {
	if b == nil {
		return nil
	}
	return b.Conn.Disconnect()
}

// Shutdown closes the bridge within ctx. A callback stuck on the consumer
// goroutine holds Close forever; when ctx ends first, Close is left running
// and the context error is returned.
func (b *Bridge) Shutdown(ctx context.Context) error {
	if b == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() { done <- b.Close() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("bridge: close abandoned: %w", ctx.Err())
	}
}

// Health reports an error once the connection is closed or its queue has
// left the open state.
func (b *Bridge) Health() error {
	if b.Conn.Closed() {
		return errors.New("connection closed")
	}
	if state := b.Conn.Stats().Queue.State; state != completion.StateOpen {
		return fmt.Errorf("completion queue %s", state)
	}
	return nil
}

// ProbeCollection is reserved for Probe's canary key.
const ProbeCollection domain.CollectionID = math.MaxUint32

var probeKey = []byte("castle.probe")

// Probe writes a canary value through the pipeline and reads it back.
func (b *Bridge) Probe(ctx context.Context) error {
	want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
	if _, err := b.Conn.Put(ctx, ProbeCollection, probeKey, want); err != nil {
		return fmt.Errorf("probe put: %w", err)
	}
	buf := make([]byte, len(want))
	resp, err := b.Conn.Get(ctx, ProbeCollection, probeKey, buf)
	if err != nil {
		return fmt.Errorf("probe get: %w", err)
	}
	if !bytes.Equal(buf[:resp.Length], want) {
		return fmt.Errorf("probe read back %q, wrote %q", buf[:resp.Length], want)
	}
	return nil
}

// DriverConfig maps the driver section onto a loopback configuration.
func DriverConfig(cfg *config.BridgeConfig, log logger.Logger) loopback.Config {
	d := cfg.Driver
	lc := loopback.DefaultConfig(d.Dir)
	lc.InMemory = d.InMemory
	lc.Workers = d.Workers
	lc.WorkerQueue = d.WorkerQueue
	lc.SyncWrites = d.SyncWrites
	lc.GCInterval = d.GCInterval
	lc.IterBatchLimit = d.IterBatchLimit
	if d.InMemory {
		lc.Dir = ""
	}
	if log != nil {
		lc.Logger = log.With("component", "loopback").Slog()
	}
	return lc
}

// ConnectionOptions maps the queue and watchdog sections onto connection
// options.
func ConnectionOptions(cfg *config.BridgeConfig, opts Options) connection.Options {
	co := connection.DefaultOptions()
	co.QueueCapacity = cfg.Queue.Capacity
	co.NodeLimit = cfg.Queue.NodeLimit
	if rates := cfg.Queue.FailureLogRates(); rates != nil {
		co.FailureLogRates = rates
	} else {
		co.FailureLogRates = map[time.Duration]int{}
	}
	co.WatchdogPeriod = cfg.Watchdog.Period
	if !cfg.Watchdog.Exit {
		co.WatchdogAction = opts.OnWatchdog
		if co.WatchdogAction == nil {
			co.WatchdogAction = func() {}
		}
	}
	co.Registerer = opts.Registerer
	co.Logger = opts.Logger
	return co
}
