package connection

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/castle-go/internal/core/completion"
	"github.com/yndnr/castle-go/internal/telemetry/logger"
)

// Options configures a Connection.
type Options struct {
	// QueueCapacity bounds the completions waiting for delivery.
	// Default: 1024
	QueueCapacity int

	// NodeLimit caps outstanding completion nodes. Completions beyond the
	// limit are dropped. Zero means unlimited.
	NodeLimit int

	// FailureLogRates limits logging of failed callbacks. Nil uses
	// completion.DefaultFailureLogRates.
	FailureLogRates map[time.Duration]int

	// WatchdogPeriod arms a dead man switch on the consumer. Zero disables it.
	WatchdogPeriod time.Duration

	// WatchdogAction replaces the switch's default action of exiting.
	WatchdogAction func()

	// ProgressWindow is the window for delivery rate estimates.
	// Default: 10s
	ProgressWindow time.Duration

	// Registerer receives the pipeline metrics. Nil disables metrics.
	Registerer prometheus.Registerer

	// Logger defaults to logger.Default().
	Logger logger.Logger
}

// DefaultOptions returns the default connection options.
func DefaultOptions() Options {
	return Options{
		QueueCapacity:   1024,
		FailureLogRates: completion.DefaultFailureLogRates,
		ProgressWindow:  10 * time.Second,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.QueueCapacity <= 0 {
		o.QueueCapacity = d.QueueCapacity
	}
	if o.NodeLimit < 0 {
		o.NodeLimit = 0
	}
	if o.FailureLogRates == nil {
		o.FailureLogRates = d.FailureLogRates
	}
	if o.ProgressWindow <= 0 {
		o.ProgressWindow = d.ProgressWindow
	}
	if o.Logger == nil {
		o.Logger = logger.Default()
	}
}
