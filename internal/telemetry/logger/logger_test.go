package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// newBuffered returns a JSON logger writing to buf and restores the
// process-wide level afterwards.
func newBuffered(t *testing.T, level string, buf *bytes.Buffer) Logger {
	t.Helper()
	prev := GetLevel()
	t.Cleanup(func() { SetLevel(prev) })
	l, err := New(Config{Level: level, Format: "json", Output: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e map[string]any
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestNew_Formats(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
		want    string
	}{
		{"json", false, `"msg":"hello"`},
		{"", false, `"msg":"hello"`},
		{"text", false, "msg=hello"},
		{"console", false, "msg=hello"},
		{"xml", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Config{Level: "info", Format: tt.format, Output: &buf})
			if tt.wantErr {
				if err == nil {
					t.Fatal("New() should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			l.Info("hello")
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNew_UnknownLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New() with unknown level should fail")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLevel_AppliesToExistingLoggers(t *testing.T) {
	var buf bytes.Buffer
	l := newBuffered(t, "info", &buf)

	l.Debug("hidden")
	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() = %q, want debug", GetLevel())
	}
	l.Debug("shown")
	SetLevel("shout")
	if GetLevel() != "debug" {
		t.Errorf("unknown level changed GetLevel() to %q", GetLevel())
	}
	SetLevel("error")
	l.Warn("hidden too")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0]["msg"] != "shown" {
		t.Errorf("entries = %v, want only \"shown\"", entries)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	l := newBuffered(t, "debug", &buf)

	l.With("component", "consumer").Warn("callback failed", "status", "too_big")

	e := decodeLines(t, &buf)[0]
	if e["component"] != "consumer" || e["status"] != "too_big" || e["level"] != "WARN" {
		t.Errorf("entry = %v", e)
	}
}

func TestLogger_Service(t *testing.T) {
	var buf bytes.Buffer
	prev := GetLevel()
	defer SetLevel(prev)
	l, err := New(Config{Level: "info", Output: &buf, Service: "castle-bridged"})
	if err != nil {
		t.Fatal(err)
	}
	l.Info("started")
	if e := decodeLines(t, &buf)[0]; e["service"] != "castle-bridged" {
		t.Errorf("service = %v", e["service"])
	}
}

func TestLogger_WithContextAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	l := newBuffered(t, "info", &buf)

	ctx := WithConnectionID(context.Background(), "conn-3")
	ctx = WithRequestID(ctx, "req-4")
	l.WithContext(ctx).Info("delivered")
	l.Slog().InfoContext(ctx, "via slog")
	l.Info("no ids")

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for _, e := range entries[:2] {
		if e["connection_id"] != "conn-3" || e["request_id"] != "req-4" {
			t.Errorf("entry %v missing ids", e)
		}
	}
	if _, ok := entries[2]["request_id"]; ok {
		t.Errorf("entry without context has request_id: %v", entries[2])
	}
}

func TestLogger_RedactsPayload(t *testing.T) {
	var buf bytes.Buffer
	l := newBuffered(t, "info", &buf)

	l.Info("put", "value", []byte("secret-bytes"), "api_secret", "hunter2")

	out := buf.String()
	if strings.Contains(out, "secret-bytes") || strings.Contains(out, "hunter2") {
		t.Errorf("payload leaked: %s", out)
	}
	if !strings.Contains(out, "<12 bytes>") {
		t.Errorf("payload size missing: %s", out)
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}

	orig := Default()
	defer SetDefault(orig)

	var buf bytes.Buffer
	l := newBuffered(t, "info", &buf)
	SetDefault(l)
	if Default() != l {
		t.Error("SetDefault() did not replace the default logger")
	}
	slog.Info("through slog")
	if !strings.Contains(buf.String(), "through slog") {
		t.Errorf("slog default not replaced: %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("dropped")
	l.With("a", 1).WithContext(context.Background()).Info("dropped")
	if l.Slog() == nil {
		t.Error("Nop().Slog() returned nil")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" || cfg.Output == nil {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}
