// Package main provides the entry point for castle-bridged.
//
// castle-bridged hosts a loopback driver and its completion pipeline as a
// long-running process. It serves Prometheus metrics, a /healthz probe backed
// by a periodic canary round trip, and a JSON pipeline snapshot at
// /debug/stats. The log level follows edits to the configuration file.
//
// Usage:
//
//	castle-bridged --config /etc/castle/bridged.yaml
//	CASTLE_DRIVER__IN_MEMORY=true castle-bridged
package main
