// Package progress estimates work and byte rates over a sliding window.
//
// WorkTracker spreads each work item evenly across its own interval and
// reports the share that overlaps the window. ByteRate derives bandwidth
// from an accumulating byte counter.
package progress
