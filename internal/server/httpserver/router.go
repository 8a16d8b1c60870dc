package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/castle-go/internal/server/httpserver/handler"
	"github.com/yndnr/castle-go/internal/telemetry/metric"
)

// HealthPath is the liveness probe path.
const HealthPath = "/healthz"

// StatsPath serves a JSON snapshot of the pipeline.
const StatsPath = "/debug/stats"

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Registry is scraped at MetricsPath. Nil disables the route.
	Registry *prometheus.Registry

	// MetricsPath defaults to /metrics.
	MetricsPath string

	// Health returns nil while the bridge can deliver completions.
	Health func() error

	// Stats returns the value served at StatsPath. Nil disables the route.
	Stats func() any

	// Logger for access logs and recovered panics.
	Logger *slog.Logger

	// RateLimit is the per-IP request rate; zero disables limiting.
	RateLimit int
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MetricsPath: "/metrics",
		RateLimit:   50,
	}
}

// NewRouter builds the operational mux with its middleware chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	health := cfg.Health
	if health == nil {
		health = func() error { return nil }
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+HealthPath, handler.Health(health))
	if cfg.Registry != nil {
		mux.Handle("GET "+metricsPath, metric.Handler(cfg.Registry))
	}
	if cfg.Stats != nil {
		mux.Handle("GET "+StatsPath, handler.Stats(cfg.Stats))
	}

	middlewares := []Middleware{RequestID(), Recover(log), AccessLog(log)}
	if cfg.RateLimit > 0 {
		middlewares = append(middlewares, RateLimit(cfg.RateLimit))
	}
	return Chain(mux, middlewares...)
}
