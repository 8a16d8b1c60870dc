package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/castle-go/internal/infra/confloader"
)

func validConfig(t *testing.T) *BridgeConfig {
	t.Helper()
	cfg := Default()
	cfg.Driver.Dir = filepath.Join(t.TempDir(), "data")
	return cfg
}

func TestDefault_Verifies(t *testing.T) {
	if err := Verify(validConfig(t)); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestVerify_CreatesDriverDir(t *testing.T) {
	cfg := validConfig(t)
	if err := Verify(cfg); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if info, err := os.Stat(cfg.Driver.Dir); err != nil || !info.IsDir() {
		t.Errorf("driver dir not created: %v", err)
	}
}

func TestVerify_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BridgeConfig)
		want   string
	}{
		{"zero capacity", func(c *BridgeConfig) { c.Queue.Capacity = 0 }, "queue.capacity"},
		{"negative node limit", func(c *BridgeConfig) { c.Queue.NodeLimit = -1 }, "queue.node_limit"},
		{"non-monotonic log rates", func(c *BridgeConfig) { c.Queue.FailureLogPerMinute = 3 }, "failure_log_per_minute"},
		{"log rate too high per minute", func(c *BridgeConfig) { c.Queue.FailureLogPerMinute = 300 }, "failure_log_per_minute"},
		{"unknown driver", func(c *BridgeConfig) { c.Driver.Kind = "kernel" }, "driver.kind"},
		{"no workers", func(c *BridgeConfig) { c.Driver.Workers = 0 }, "driver.workers"},
		{"no dir", func(c *BridgeConfig) { c.Driver.Dir = "" }, "driver.dir"},
		{"bad metrics addr", func(c *BridgeConfig) { c.Metrics.Addr = "localhost" }, "metrics.addr"},
		{"bad metrics path", func(c *BridgeConfig) { c.Metrics.Path = "metrics" }, "metrics.path"},
		{"bad level", func(c *BridgeConfig) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *BridgeConfig) { c.Log.Format = "xml" }, "log.format"},
		{"negative watchdog", func(c *BridgeConfig) { c.Watchdog.Period = -time.Second }, "watchdog.period"},
		{"negative probe interval", func(c *BridgeConfig) { c.Probe.Interval = -time.Second }, "probe.interval"},
		{"probe without timeout", func(c *BridgeConfig) { c.Probe.Timeout = 0 }, "probe.timeout"},
		{"metrics path shadows stats", func(c *BridgeConfig) { c.Metrics.Path = "/debug/stats" }, "metrics.path"},
		{"relative admin socket", func(c *BridgeConfig) { c.Admin.Socket = "castle.sock" }, "admin.socket"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Verify(cfg)
			if err == nil {
				t.Fatal("Verify() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Verify() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestVerify_ReportsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Queue.Capacity = 0
	cfg.Log.Level = "loud"
	err := Verify(cfg)
	if err == nil || !strings.Contains(err.Error(), "queue.capacity") || !strings.Contains(err.Error(), "log.level") {
		t.Errorf("Verify() error = %v, want both problems", err)
	}
}

func TestVerify_InMemorySkipsDir(t *testing.T) {
	cfg := validConfig(t)
	cfg.Driver.InMemory = true
	cfg.Driver.Dir = ""
	cfg.Metrics.Enabled = false
	cfg.Metrics.Addr = "not an address"
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}

func TestFailureLogRates(t *testing.T) {
	q := QueueSection{FailureLogPerSecond: 5, FailureLogPerMinute: 60}
	rates := q.FailureLogRates()
	if rates[time.Second] != 5 || rates[time.Minute] != 60 || len(rates) != 2 {
		t.Errorf("FailureLogRates() = %v", rates)
	}

	if got := (QueueSection{}).FailureLogRates(); got != nil {
		t.Errorf("FailureLogRates() = %v, want nil", got)
	}
	if got := (QueueSection{FailureLogPerMinute: 10}).FailureLogRates(); len(got) != 1 || got[time.Minute] != 10 {
		t.Errorf("FailureLogRates() = %v, want only the minute window", got)
	}
}

func TestLoad_FromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "castle.yaml")
	content := `
queue:
  capacity: 64
  node_limit: 1000
driver:
  in_memory: true
watchdog:
  period: 5s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	t.Setenv("CASTLE_METRICS__ADDR", "0.0.0.0:9999")

	cfg := Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Queue.Capacity != 64 || cfg.Queue.NodeLimit != 1000 {
		t.Errorf("queue = %+v", cfg.Queue)
	}
	if !cfg.Driver.InMemory {
		t.Error("driver.in_memory not loaded")
	}
	if cfg.Watchdog.Period != 5*time.Second {
		t.Errorf("watchdog.period = %v, want 5s", cfg.Watchdog.Period)
	}
	if cfg.Metrics.Addr != "0.0.0.0:9999" {
		t.Errorf("metrics.addr = %q, want env value", cfg.Metrics.Addr)
	}
	// untouched defaults survive
	if cfg.Queue.FailureLogPerSecond != DefaultFailureLogPerSecond || cfg.Driver.Workers != DefaultDriverWorkers {
		t.Errorf("defaults lost: %+v %+v", cfg.Queue, cfg.Driver)
	}
	if err := Verify(cfg); err != nil {
		t.Errorf("Verify() error = %v", err)
	}
}
