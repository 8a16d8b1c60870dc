package loopback

import (
	"log/slog"
	"time"
)

// Config configures a loopback driver.
type Config struct {
	// Dir is the Badger directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory.
	InMemory bool

	// Workers is the number of completion goroutines.
	// Default: 4
	Workers int

	// WorkerQueue is the per-worker request backlog before Submit blocks.
	// Default: 128
	WorkerQueue int

	// SyncWrites makes every Put durable before it completes.
	SyncWrites bool

	// GCInterval is the interval between value-log GC runs (on-disk only).
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the value-log discard ratio that triggers a rewrite.
	// Default: 0.5
	GCThreshold float64

	// IterBatchLimit caps the entries returned by one IterNext.
	// Default: 256
	IterBatchLimit int

	// Logger receives driver and Badger logs.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration for an on-disk driver in dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		Workers:        4,
		WorkerQueue:    128,
		GCInterval:     10 * time.Minute,
		GCThreshold:    0.5,
		IterBatchLimit: 256,
	}
}

// MemoryConfig returns a configuration for an in-memory driver.
func MemoryConfig() Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	return cfg
}

func (c *Config) applyDefaults() {
	d := DefaultConfig(c.Dir)
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.WorkerQueue <= 0 {
		c.WorkerQueue = d.WorkerQueue
	}
	if c.GCInterval <= 0 {
		c.GCInterval = d.GCInterval
	}
	if c.GCThreshold <= 0 || c.GCThreshold >= 1 {
		c.GCThreshold = d.GCThreshold
	}
	if c.IterBatchLimit <= 0 {
		c.IterBatchLimit = d.IterBatchLimit
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
