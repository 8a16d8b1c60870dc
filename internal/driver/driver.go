package driver

import (
	"context"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// Notifier receives the completion of one asynchronous request.
type Notifier interface {
	Notify(c *domain.Completion)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(c *domain.Completion)

// Notify calls f(c).
func (f NotifierFunc) Notify(c *domain.Completion) {
	f(c)
}

// Driver is the request entry point of a storage driver.
//
// Asynchronous submissions complete by calling the Notifier supplied with the
// request, exactly once, on a goroutine of the driver's choosing. The
// completion record passed to Notify is only valid for the duration of the
// call.
type Driver interface {
	// Submit queues req for asynchronous execution. If Submit returns an
	// error the request was not accepted and n will never be called;
	// otherwise n is called exactly once.
	Submit(req *domain.Request, n Notifier) error

	// Exec executes req and blocks until it completes or ctx is done.
	Exec(ctx context.Context, req *domain.Request) (domain.Completion, error)

	// Close stops the driver. Requests accepted before Close still complete.
	Close() error
}
