// Package localserver serves the operational endpoints of castle-bridged on
// a Unix domain socket.
//
// The socket carries the same routes as the TCP endpoint (/healthz,
// /debug/stats and, when enabled, metrics) without the per-IP rate limit.
// Access is controlled by file system permissions on the socket.
package localserver
