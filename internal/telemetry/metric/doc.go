// Package metric provides Prometheus metrics for the Castle bridge.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: registry, HTTP handler and the pipeline observer
//   - collector.go: gauges sampled from queue, allocator and driver state
//
// Metrics include:
//
//   - Completion counters by outcome and status
//   - Queue wait histograms
//   - Queue depth and outstanding node gauges
//   - Loopback store sizes
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
