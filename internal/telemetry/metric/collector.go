package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Snapshot is a point-in-time view of the completion pipeline.
type Snapshot struct {
	QueueDepth    int
	QueueCapacity int
	Outstanding   int64
	LiveHandles   int64
	AllocFailures uint64

	// Store sizes, zero when the driver does not report them.
	LSMSize      int64
	ValueLogSize int64
}

// Collector samples pipeline state on every scrape.
type Collector struct {
	snapshot func() Snapshot

	queueDepth    *prometheus.Desc
	queueCapacity *prometheus.Desc
	outstanding   *prometheus.Desc
	liveHandles   *prometheus.Desc
	allocFailures *prometheus.Desc
	lsmSize       *prometheus.Desc
	valueLogSize  *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector reading state from snapshot.
func NewCollector(snapshot func() Snapshot) *Collector {
	desc := func(sub, name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(Namespace, sub, name), help, nil, nil)
	}
	return &Collector{
		snapshot:      snapshot,
		queueDepth:    desc("queue", "depth", "Completions waiting for delivery."),
		queueCapacity: desc("queue", "capacity", "Configured queue capacity."),
		outstanding:   desc("queue", "outstanding_nodes", "Nodes allocated and not yet freed."),
		liveHandles:   desc("queue", "live_handles", "Callback handles not yet released."),
		allocFailures: desc("queue", "alloc_failures_total", "Node allocations refused by the limit."),
		lsmSize:       desc("loopback", "lsm_size_bytes", "Size of the LSM tree."),
		valueLogSize:  desc("loopback", "value_log_size_bytes", "Size of the value log."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.queueDepth
	ch <- c.queueCapacity
	ch <- c.outstanding
	ch <- c.liveHandles
	ch <- c.allocFailures
	ch <- c.lsmSize
	ch <- c.valueLogSize
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.snapshot()
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(s.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.queueCapacity, prometheus.GaugeValue, float64(s.QueueCapacity))
	ch <- prometheus.MustNewConstMetric(c.outstanding, prometheus.GaugeValue, float64(s.Outstanding))
	ch <- prometheus.MustNewConstMetric(c.liveHandles, prometheus.GaugeValue, float64(s.LiveHandles))
	ch <- prometheus.MustNewConstMetric(c.allocFailures, prometheus.CounterValue, float64(s.AllocFailures))
	ch <- prometheus.MustNewConstMetric(c.lsmSize, prometheus.GaugeValue, float64(s.LSMSize))
	ch <- prometheus.MustNewConstMetric(c.valueLogSize, prometheus.GaugeValue, float64(s.ValueLogSize))
}
