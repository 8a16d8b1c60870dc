package config

import "time"

// BridgeConfig is the root configuration for castle-bridged.
type BridgeConfig struct {
	Queue    QueueSection    `koanf:"queue" yaml:"queue"`
	Driver   DriverSection   `koanf:"driver" yaml:"driver"`
	Metrics  MetricsSection  `koanf:"metrics" yaml:"metrics"`
	Watchdog WatchdogSection `koanf:"watchdog" yaml:"watchdog"`
	Probe    ProbeSection    `koanf:"probe" yaml:"probe"`
	Admin    AdminSection    `koanf:"admin" yaml:"admin"`
	Log      LogSection      `koanf:"log" yaml:"log"`
}

// QueueSection configures the completion pipeline.
type QueueSection struct {
	// Capacity bounds the completions waiting for delivery.
	Capacity int `koanf:"capacity" yaml:"capacity"`

	// NodeLimit caps outstanding completion nodes; 0 is unlimited.
	NodeLimit int `koanf:"node_limit" yaml:"node_limit"`

	// FailureLogPerSecond and FailureLogPerMinute limit logging of failed
	// callbacks. Both zero logs every failure.
	FailureLogPerSecond int `koanf:"failure_log_per_second" yaml:"failure_log_per_second"`
	FailureLogPerMinute int `koanf:"failure_log_per_minute" yaml:"failure_log_per_minute"`
}

// DriverSection configures the loopback driver.
type DriverSection struct {
	// Kind selects the driver. Only "loopback" is built in.
	Kind string `koanf:"kind" yaml:"kind"`

	// Dir is the data directory; ignored when InMemory is set.
	Dir      string `koanf:"dir" yaml:"dir"`
	InMemory bool   `koanf:"in_memory" yaml:"in_memory"`

	Workers        int           `koanf:"workers" yaml:"workers"`
	WorkerQueue    int           `koanf:"worker_queue" yaml:"worker_queue"`
	SyncWrites     bool          `koanf:"sync_writes" yaml:"sync_writes"`
	GCInterval     time.Duration `koanf:"gc_interval" yaml:"gc_interval"`
	IterBatchLimit int           `koanf:"iter_batch_limit" yaml:"iter_batch_limit"`
}

// MetricsSection configures the HTTP endpoint serving /metrics and /healthz.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Addr    string `koanf:"addr" yaml:"addr"`
	Path    string `koanf:"path" yaml:"path"`
}

// WatchdogSection configures the dead man switch on the consumer.
type WatchdogSection struct {
	// Period without a delivery, while work is pending, before the switch
	// trips. Zero disables the watchdog.
	Period time.Duration `koanf:"period" yaml:"period"`

	// Exit terminates the process when the switch trips. When false the
	// bridge shuts down gracefully instead.
	Exit bool `koanf:"exit" yaml:"exit"`
}

// ProbeSection configures the canary round trip behind /healthz.
type ProbeSection struct {
	// Interval between probes. Zero disables probing.
	Interval time.Duration `koanf:"interval" yaml:"interval"`

	// Timeout bounds one probe.
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// AdminSection configures the local operational socket.
type AdminSection struct {
	// Socket is the Unix socket path serving /healthz, /debug/stats and
	// metrics. Empty disables it.
	Socket string `koanf:"socket" yaml:"socket"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}
