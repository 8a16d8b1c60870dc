package confloader

import (
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Queue struct {
		Capacity  int `koanf:"capacity"`
		NodeLimit int `koanf:"node_limit"`
	} `koanf:"queue"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "castle.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/castle.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want TEST_", l.envPrefix)
	}
	if l.FilePath() != "/etc/castle.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"CASTLE_QUEUE__CAPACITY", "queue.capacity"},
		{"CASTLE_QUEUE__NODE_LIMIT", "queue.node_limit"},
		{"CASTLE_METRICS__LISTEN_ADDR", "metrics.listen_addr"},
		{"CASTLE_DEBUG", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EnvKey("CASTLE_", tt.name); got != tt.want {
				t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
queue:
  capacity: 64
log:
  level: debug
`)
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.Int("queue.capacity"); got != 64 {
		t.Errorf("queue.capacity = %d, want 64", got)
	}
	if got := l.String("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want debug", got)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := l.LoadFile("/nonexistent/castle.yaml"); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
	bad := writeConfig(t, "queue: [unclosed")
	if err := l.LoadFile(bad); err == nil {
		t.Error("LoadFile() should fail for invalid YAML")
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("CASTLE_QUEUE__NODE_LIMIT", "4096")
	t.Setenv("OTHER_QUEUE__CAPACITY", "1")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.String("queue.node_limit"); got != "4096" {
		t.Errorf("queue.node_limit = %q, want 4096", got)
	}
	if l.Exists("queue.capacity") {
		t.Error("variables without the prefix should be ignored")
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"log.level": "warn", "queue": map[string]any{"capacity": 9}}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}
	if got := l.String("log.level"); got != "warn" {
		t.Errorf("log.level = %q, want warn", got)
	}
	if got := l.Int("queue.capacity"); got != 9 {
		t.Errorf("queue.capacity = %d, want 9", got)
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
queue:
  capacity: 64
  node_limit: 10
log:
  level: info
`)
	t.Setenv("CASTLE_QUEUE__CAPACITY", "128")
	t.Setenv("CASTLE_LOG__LEVEL", "warn")

	var cfg testConfig
	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"log.level": "error"}),
	)
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Queue.Capacity != 128 {
		t.Errorf("Capacity = %d, want env value 128", cfg.Queue.Capacity)
	}
	if cfg.Queue.NodeLimit != 10 {
		t.Errorf("NodeLimit = %d, want file value 10", cfg.Queue.NodeLimit)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Level = %q, want override value error", cfg.Log.Level)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	var cfg testConfig
	cfg.Queue.Capacity = 1024
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Queue.Capacity != 1024 {
		t.Errorf("Capacity = %d, want default 1024", cfg.Queue.Capacity)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "log:\n  level: debug\n")

	var cfg testConfig
	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("queue:\n  capacity: 5\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	var fresh testConfig
	if err := l.Reload(&fresh); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if fresh.Log.Level != "" {
		t.Errorf("Level = %q, stale value survived reload", fresh.Log.Level)
	}
	if fresh.Queue.Capacity != 5 {
		t.Errorf("Capacity = %d, want 5", fresh.Queue.Capacity)
	}
}

func TestMapProvider_ExpandsDottedKeys(t *testing.T) {
	m, err := mapProvider{"a.b.c": 1, "a.d": 2, "e": 3}.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	a, ok := m["a"].(map[string]any)
	if !ok {
		t.Fatalf("a = %#v, want a map", m["a"])
	}
	if b, ok := a["b"].(map[string]any); !ok || b["c"] != 1 {
		t.Errorf("a.b = %#v", a["b"])
	}
	if a["d"] != 2 || m["e"] != 3 {
		t.Errorf("map = %#v", m)
	}
	if _, err := (mapProvider{}).ReadBytes(); err == nil {
		t.Error("ReadBytes() should fail")
	}
}
