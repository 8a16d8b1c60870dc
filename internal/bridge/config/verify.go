package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/castle-go/internal/telemetry/logger"
)

// Verify validates the configuration. It creates the driver directory when
// the driver is on disk.
func Verify(cfg *BridgeConfig) error {
	var errs []error
	errs = append(errs, verifyQueue(&cfg.Queue)...)
	errs = append(errs, verifyDriver(&cfg.Driver)...)
	errs = append(errs, verifyMetrics(&cfg.Metrics)...)
	errs = append(errs, verifyLog(&cfg.Log)...)
	if cfg.Watchdog.Period < 0 {
		errs = append(errs, errors.New("watchdog.period must not be negative"))
	}
	if cfg.Probe.Interval < 0 {
		errs = append(errs, errors.New("probe.interval must not be negative"))
	}
	if cfg.Probe.Interval > 0 && cfg.Probe.Timeout <= 0 {
		errs = append(errs, errors.New("probe.timeout must be positive when probing is enabled"))
	}
	if sock := cfg.Admin.Socket; sock != "" && !filepath.IsAbs(sock) {
		errs = append(errs, fmt.Errorf("admin.socket %q must be an absolute path", sock))
	}
	return errors.Join(errs...)
}

func verifyQueue(q *QueueSection) []error {
	var errs []error
	if q.Capacity < 1 {
		errs = append(errs, errors.New("queue.capacity must be at least 1"))
	}
	if q.NodeLimit < 0 {
		errs = append(errs, errors.New("queue.node_limit must not be negative"))
	}
	if q.FailureLogPerSecond < 0 || q.FailureLogPerMinute < 0 {
		errs = append(errs, errors.New("queue failure log limits must not be negative"))
	}
	// catrate needs longer windows to allow more events at a lower rate
	if s, m := q.FailureLogPerSecond, q.FailureLogPerMinute; s > 0 && m > 0 && (m <= s || m >= 60*s) {
		errs = append(errs, fmt.Errorf(
			"queue.failure_log_per_minute (%d) must be above failure_log_per_second (%d) and below 60x it", m, s))
	}
	return errs
}

func verifyDriver(d *DriverSection) []error {
	var errs []error
	if d.Kind != DriverLoopback {
		errs = append(errs, fmt.Errorf("driver.kind %q is not supported", d.Kind))
	}
	if d.Workers < 1 {
		errs = append(errs, errors.New("driver.workers must be at least 1"))
	}
	if d.WorkerQueue < 1 {
		errs = append(errs, errors.New("driver.worker_queue must be at least 1"))
	}
	if d.IterBatchLimit < 1 {
		errs = append(errs, errors.New("driver.iter_batch_limit must be at least 1"))
	}
	if !d.InMemory {
		if d.Dir == "" {
			errs = append(errs, errors.New("driver.dir is required unless driver.in_memory is set"))
		} else if err := os.MkdirAll(d.Dir, 0750); err != nil {
			errs = append(errs, fmt.Errorf("cannot create driver directory: %w", err))
		}
	}
	return errs
}

func verifyMetrics(m *MetricsSection) []error {
	if !m.Enabled {
		return nil
	}
	var errs []error
	if _, _, err := net.SplitHostPort(m.Addr); err != nil {
		errs = append(errs, fmt.Errorf("metrics.addr: %w", err))
	}
	if !strings.HasPrefix(m.Path, "/") || m.Path == "/healthz" || m.Path == "/debug/stats" {
		errs = append(errs, fmt.Errorf("metrics.path %q must start with / and not shadow /healthz or /debug/stats", m.Path))
	}
	return errs
}

func verifyLog(l *LogSection) []error {
	var errs []error
	if _, err := logger.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", l.Level))
	}
	switch strings.ToLower(l.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", l.Format))
	}
	return errs
}
