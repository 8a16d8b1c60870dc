// Package driver defines the boundary to the storage driver.
//
// The loopback sub-package provides an in-process implementation backed by
// Badger, used by the command-line tools and by tests.
package driver
