package completion

import (
	"time"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// Observer receives pipeline events. Implementations must be safe for
// concurrent use: producer events arrive on driver goroutines. A panic in
// Delivered or DeliveryFailed is recovered and logged by the consumer.
type Observer interface {
	// Pushed is called after a node was accepted by the queue.
	Pushed()
	// Rejected is called when a push hit a shut-down queue.
	Rejected()
	// Dropped is called when a completion was lost to allocation failure.
	Dropped()
	// Delivered is called after the callback ran, successfully or not.
	// wait is the time the node spent queued.
	Delivered(c domain.Completion, wait time.Duration)
	// DeliveryFailed is called when a callback panicked or returned an error.
	DeliveryFailed()
}

type nopObserver struct{}

func (nopObserver) Pushed()                                    {}
func (nopObserver) Rejected()                                  {}
func (nopObserver) Dropped()                                   {}
func (nopObserver) Delivered(domain.Completion, time.Duration) {}
func (nopObserver) DeliveryFailed()                            {}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) Pushed() {
	for _, x := range o {
		x.Pushed()
	}
}

func (o Observers) Rejected() {
	for _, x := range o {
		x.Rejected()
	}
}

func (o Observers) Dropped() {
	for _, x := range o {
		x.Dropped()
	}
}

func (o Observers) Delivered(c domain.Completion, wait time.Duration) {
	for _, x := range o {
		x.Delivered(c, wait)
	}
}

func (o Observers) DeliveryFailed() {
	for _, x := range o {
		x.DeliveryFailed()
	}
}
