// Package httpserver serves castle-bridged's operational endpoints:
// Prometheus metrics, a health probe and a JSON pipeline snapshot.
package httpserver
