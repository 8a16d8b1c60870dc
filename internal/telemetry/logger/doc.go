// Package logger provides structured logging for the Castle bridge.
//
// This package wraps log/slog:
//
//   - logger.go: handler construction and the Logger interface
//   - context.go: context-aware logging with request and connection IDs
//   - redact.go: payload and credential redaction
//
// Features:
//
//   - JSON and text output formats
//   - Runtime log level changes
//   - Value payloads logged as sizes, never contents
//   - Context propagation for request tracing
package logger
