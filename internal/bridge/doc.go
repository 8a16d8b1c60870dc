// Package bridge assembles a driver and its connection from a BridgeConfig.
// castle-bridged and castle-cli both open their pipeline through Open.
package bridge
