// Package loopback implements driver.Driver in-process on top of Badger.
//
// It stands in for the kernel storage driver during development and in
// tests. Requests are executed by a fixed set of worker goroutines; the
// worker for a request is chosen by hashing its key (or iterator token), so
// completions for one key are delivered in submission order while different
// keys complete concurrently, from different goroutines.
//
// Keys are stored as a 4-byte big-endian collection id followed by the user
// key. Values are stored with an 8-byte write timestamp prefix, which is
// reported back as the completion timestamp.
package loopback
