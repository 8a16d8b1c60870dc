// Package deadman provides a heartbeat watchdog.
//
// A Switch is armed with a period. If the watched loop has pending work and
// no heartbeat arrives within the period, the switch logs the stacks of all
// goroutines and runs its trigger action, which exits the process unless
// replaced.
//
// Usage:
//
//	sw := deadman.New(20*time.Second, deadman.WithBusy(consumer.Busy))
//	sw.Start()
//	defer sw.Disable()
package deadman
