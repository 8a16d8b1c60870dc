// Package completion moves driver completions from the driver's notification
// goroutines to a single delivery goroutine.
//
// The pipeline has four parts:
//
//   - Queue: a bounded FIFO guarded by one mutex and two condition variables.
//   - Producer: called on driver goroutines, copies each completion into a
//     Node and pushes it. It never calls user code.
//   - Consumer: the only goroutine that pops nodes and invokes the request's
//     domain.Callback (SetResponse, SetError, Run).
//   - Queue.Shutdown: stops accepting pushes, wakes every waiter and blocks
//     until the consumer has drained what was already queued.
//
// Data flow:
//
//	driver goroutine -> RequestContext.Notify -> Producer.Complete -> Queue.Push
//	Queue.Pop -> Consumer -> Callback.SetResponse / SetError / Run
//
// Ownership of the caller's callback travels with the node: a Handle is owned
// by its RequestContext until the completion arrives, by the Node while it is
// queued, and by the Consumer while it is delivered. Whoever holds it last
// releases it, exactly once.
package completion
