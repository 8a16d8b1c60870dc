// Package connection owns one driver session and its completion pipeline.
//
// Connect creates the bounded completion queue, the node allocator and the
// producer adapter, and starts the single consumer goroutine that runs
// callbacks. Disconnect closes the driver, drains the queue and stops the
// consumer.
//
// Callbacks run on the consumer goroutine. A callback that submits a new
// request and then waits for it will deadlock once the queue is full; the
// blocking helpers (Get, Put, Remove, Iterate) must not be called from a
// callback.
package connection
