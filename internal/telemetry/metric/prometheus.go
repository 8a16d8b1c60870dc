package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/castle-go/internal/core/domain"
)

// Namespace prefixes every metric name.
const Namespace = "castle"

// NewRegistry creates a registry with the Go runtime and process collectors
// already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		EnableOpenMetrics: true,
	})
}

// Pipeline counts completion pipeline events. It satisfies the completion
// package's Observer interface.
type Pipeline struct {
	pushed         prometheus.Counter
	rejected       prometheus.Counter
	dropped        prometheus.Counter
	delivered      *prometheus.CounterVec
	deliveredBytes prometheus.Counter
	failures       prometheus.Counter
	wait           prometheus.Histogram
}

// NewPipeline creates the pipeline metrics and registers them with reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		pushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "pushed_total",
			Help:      "Completions accepted by the queue.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "rejected_total",
			Help:      "Completions discarded because the queue was shut down.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "dropped_total",
			Help:      "Completions lost before reaching the queue.",
		}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "delivered_total",
			Help:      "Completions handed to callbacks, by status.",
		}, []string{"status"}),
		deliveredBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "delivered_bytes_total",
			Help:      "Sum of the lengths reported by delivered completions.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "callback_failures_total",
			Help:      "Callbacks that returned an error or panicked.",
		}),
		wait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "completion",
			Name:      "queue_wait_seconds",
			Help:      "Time between push and delivery.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
	}

	reg.MustRegister(p.pushed, p.rejected, p.dropped, p.delivered,
		p.deliveredBytes, p.failures, p.wait)
	return p
}

func (p *Pipeline) Pushed()         { p.pushed.Inc() }
func (p *Pipeline) Rejected()       { p.rejected.Inc() }
func (p *Pipeline) Dropped()        { p.dropped.Inc() }
func (p *Pipeline) DeliveryFailed() { p.failures.Inc() }

func (p *Pipeline) Delivered(c domain.Completion, wait time.Duration) {
	p.delivered.WithLabelValues(c.Status.String()).Inc()
	if c.Status == domain.StatusOK {
		p.deliveredBytes.Add(float64(c.Length))
	}
	p.wait.Observe(wait.Seconds())
}
