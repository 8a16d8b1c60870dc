package config

import "time"

// Default configuration values.
const (
	DefaultQueueCapacity       = 1024
	DefaultFailureLogPerSecond = 5
	DefaultFailureLogPerMinute = 60

	DriverLoopback        = "loopback"
	DefaultDriverDir      = "/var/lib/castle-bridged/data"
	DefaultDriverWorkers  = 4
	DefaultWorkerQueue    = 128
	DefaultGCInterval     = 10 * time.Minute
	DefaultIterBatchLimit = 256

	DefaultMetricsAddr = "127.0.0.1:9410"
	DefaultMetricsPath = "/metrics"

	DefaultWatchdogPeriod = 20 * time.Second

	DefaultProbeInterval = 30 * time.Second
	DefaultProbeTimeout  = 5 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default bridge configuration.
func Default() *BridgeConfig {
	return &BridgeConfig{
		Queue: QueueSection{
			Capacity:            DefaultQueueCapacity,
			FailureLogPerSecond: DefaultFailureLogPerSecond,
			FailureLogPerMinute: DefaultFailureLogPerMinute,
		},
		Driver: DriverSection{
			Kind:           DriverLoopback,
			Dir:            DefaultDriverDir,
			Workers:        DefaultDriverWorkers,
			WorkerQueue:    DefaultWorkerQueue,
			GCInterval:     DefaultGCInterval,
			IterBatchLimit: DefaultIterBatchLimit,
		},
		Metrics: MetricsSection{
			Enabled: true,
			Addr:    DefaultMetricsAddr,
			Path:    DefaultMetricsPath,
		},
		Watchdog: WatchdogSection{
			Period: DefaultWatchdogPeriod,
			Exit:   true,
		},
		Probe: ProbeSection{
			Interval: DefaultProbeInterval,
			Timeout:  DefaultProbeTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// FailureLogRates converts the queue section's limits into catrate windows.
// It returns nil when failures should always be logged.
func (q QueueSection) FailureLogRates() map[time.Duration]int {
	rates := make(map[time.Duration]int, 2)
	if q.FailureLogPerSecond > 0 {
		rates[time.Second] = q.FailureLogPerSecond
	}
	if q.FailureLogPerMinute > 0 {
		rates[time.Minute] = q.FailureLogPerMinute
	}
	if len(rates) == 0 {
		return nil
	}
	return rates
}
