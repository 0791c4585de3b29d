package octree

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports the statistics of an Octree to Prometheus.
//
// Collect reads the octree without locking, so scrapes must happen on the
// goroutine that owns the octree or while it is idle.
type Collector struct {
	octree *Octree

	octants      *prometheus.Desc
	poolCapacity *prometheus.Desc
	nodes        *prometheus.Desc
	queued       *prometheus.Desc
	insertions   *prometheus.Desc
	relocations  *prometheus.Desc
	reinsertions *prometheus.Desc
	removals     *prometheus.Desc
	updates      *prometheus.Desc
}

// NewCollector returns a collector for o with metric names prefixed by namespace.
func NewCollector(o *Octree, namespace string) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "octree", name), help, nil, nil)
	}

	return &Collector{
		octree:       o,
		octants:      desc("octants", "The number of octants in the octree."),
		poolCapacity: desc("pool_capacity", "The number of octants the allocator can serve without growing."),
		nodes:        desc("nodes", "The number of nodes placed in the octree."),
		queued:       desc("update_queue_length", "The number of nodes waiting for an update."),
		insertions:   desc("insertions_total", "The total number of first node placements by updates."),
		relocations:  desc("relocations_total", "The total number of node moves between octants."),
		reinsertions: desc("reinsertions_total", "The total number of node placements repeated by resizes."),
		removals:     desc("removals_total", "The total number of removed nodes."),
		updates:      desc("updates_total", "The total number of processed update batches."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.octants
	ch <- c.poolCapacity
	ch <- c.nodes
	ch <- c.queued
	ch <- c.insertions
	ch <- c.relocations
	ch <- c.reinsertions
	ch <- c.removals
	ch <- c.updates
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.octree.Stats()

	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	counter := func(d *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.octants, s.Octants)
	gauge(c.poolCapacity, s.PoolCapacity)
	gauge(c.nodes, s.Nodes)
	gauge(c.queued, s.Queued)
	counter(c.insertions, s.Insertions)
	counter(c.relocations, s.Relocations)
	counter(c.reinsertions, s.Reinsertions)
	counter(c.removals, s.Removals)
	counter(c.updates, s.Updates)
}

var _ prometheus.Collector = (*Collector)(nil)
