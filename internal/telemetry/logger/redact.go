package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Attribute keys whose values are user payload. They are logged as a size.
var payloadKeys = map[string]bool{
	"value":   true,
	"payload": true,
	"buffer":  true,
}

// Key patterns whose string values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"auth",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redact rewrites payload and credential attributes.
func redact(a slog.Attr) slog.Attr {
	if payloadKeys[strings.ToLower(a.Key)] {
		if size, ok := payloadSize(a.Value); ok {
			return slog.String(a.Key, fmt.Sprintf("<%d bytes>", size))
		}
	}

	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redact(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

func payloadSize(v slog.Value) (int, bool) {
	switch v.Kind() {
	case slog.KindString:
		return len(v.String()), true
	case slog.KindAny:
		if b, ok := v.Any().([]byte); ok {
			return len(b), true
		}
	}
	return 0, false
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// RedactPayload describes a payload without revealing it.
func RedactPayload(b []byte) string {
	return fmt.Sprintf("<%d bytes>", len(b))
}
