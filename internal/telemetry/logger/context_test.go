package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestWithLogger_FromContext(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)

	retrieved := FromContext(ctx)
	if retrieved == nil {
		t.Fatal("FromContext returned nil")
	}

	retrieved.Info("test message")

	if buf.Len() == 0 {
		t.Error("Logger from context should produce output")
	}
}

func TestFromContext_Default(t *testing.T) {
	if l := FromContext(context.Background()); l == nil {
		t.Error("FromContext should return default logger, got nil")
	}
}

func TestWithRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "01J0000000000000000000000")

	if got := RequestIDFromContext(ctx); got != "01J0000000000000000000000" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext() = %q, want empty string", got)
	}
}

func TestWithConnectionID(t *testing.T) {
	ctx := WithConnectionID(context.Background(), "conn-1")

	if got := ConnectionIDFromContext(ctx); got != "conn-1" {
		t.Errorf("ConnectionIDFromContext() = %q, want conn-1", got)
	}
	if got := ConnectionIDFromContext(context.Background()); got != "" {
		t.Errorf("ConnectionIDFromContext() = %q, want empty string", got)
	}
}

func TestL_EnrichesLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithLogger(context.Background(), l)
	ctx = WithConnectionID(ctx, "conn-7")
	ctx = WithRequestID(ctx, "req-9")

	L(ctx).Info("submitted")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if logEntry["connection_id"] != "conn-7" {
		t.Errorf("connection_id = %v, want conn-7", logEntry["connection_id"])
	}
	if logEntry["request_id"] != "req-9" {
		t.Errorf("request_id = %v, want req-9", logEntry["request_id"])
	}
}

func TestL_NoIDs(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	L(WithLogger(context.Background(), l)).Info("plain")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if _, ok := logEntry["request_id"]; ok {
		t.Error("request_id should be absent")
	}
}
