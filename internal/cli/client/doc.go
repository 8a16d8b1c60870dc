// Package client talks to the operational endpoint of a running
// castle-bridged over TCP or its admin Unix socket.
package client
