// SPDX-License-Identifier: EPL-2.0

package monitoring

import (
	"github.com/ik5/audgraph/graph"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "audgraph"

// StatsSource is satisfied by *graph.Stats.
type StatsSource interface {
	Snapshot() graph.StatsSnapshot
}

// LoadCounter is satisfied by *sampler.Loader.
type LoadCounter interface {
	Loads() uint64
}

// Collector exports the scheduler counters. Values are read at scrape
// time, so the audio thread only ever touches its atomics.
type Collector struct {
	stats StatsSource
	loads LoadCounter

	cycles      *prometheus.Desc
	skipped     *prometheus.Desc
	compiled    *prometheus.Desc
	rejected    *prometheus.Desc
	dropped     *prometheus.Desc
	poolBuffers *prometheus.Desc
	sampleLoads *prometheus.Desc
}

// NewCollector builds a collector; loads may be nil.
func NewCollector(stats StatsSource, loads LoadCounter) *Collector {
	return &Collector{
		stats: stats,
		loads: loads,
		cycles: prometheus.NewDesc(namespace+"_cycles_total",
			"Audio cycles processed.", nil, nil),
		skipped: prometheus.NewDesc(namespace+"_skipped_drains_total",
			"Cycle-boundary drains skipped because a management thread held the lock.",
			[]string{"queue"}, nil),
		compiled: prometheus.NewDesc(namespace+"_modules_compiled_total",
			"Modules spliced into the graph.", nil, nil),
		rejected: prometheus.NewDesc(namespace+"_modules_rejected_total",
			"Modules whose Prepare failed.", nil, nil),
		dropped: prometheus.NewDesc(namespace+"_messages_dropped_total",
			"Control messages with no matching module.", nil, nil),
		poolBuffers: prometheus.NewDesc(namespace+"_pool_buffers",
			"Buffers allocated in the graph pool.", nil, nil),
		sampleLoads: prometheus.NewDesc(namespace+"_sample_loads_total",
			"Sample files read by the loader.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.cycles
	ch <- c.skipped
	ch <- c.compiled
	ch <- c.rejected
	ch <- c.dropped
	ch <- c.poolBuffers
	if c.loads != nil {
		ch <- c.sampleLoads
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.cycles, prometheus.CounterValue, float64(s.Cycles))
	ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.CounterValue, float64(s.SkippedInsertions), "insertions")
	ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.CounterValue, float64(s.SkippedMail), "mailbox")
	ch <- prometheus.MustNewConstMetric(c.skipped, prometheus.CounterValue, float64(s.SkippedCompletions), "completions")
	ch <- prometheus.MustNewConstMetric(c.compiled, prometheus.CounterValue, float64(s.Compiled))
	ch <- prometheus.MustNewConstMetric(c.rejected, prometheus.CounterValue, float64(s.Rejected))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.poolBuffers, prometheus.GaugeValue, float64(s.PoolSize))
	if c.loads != nil {
		ch <- prometheus.MustNewConstMetric(c.sampleLoads, prometheus.CounterValue, float64(c.loads.Loads()))
	}
}
