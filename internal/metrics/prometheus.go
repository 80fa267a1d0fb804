package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mull"

var (
	descSessions = prometheus.NewDesc(namespace+"_sessions_total",
		"number of sessions opened", nil, nil)
	descActive = prometheus.NewDesc(namespace+"_sessions_active",
		"number of sessions currently open", nil, nil)
	descBusy = prometheus.NewDesc(namespace+"_busy_rejections_total",
		"number of opens refused because a session was active", nil, nil)
	descWrites = prometheus.NewDesc(namespace+"_writes_total",
		"number of successful write calls", nil, nil)
	descOffered = prometheus.NewDesc(namespace+"_bytes_offered_total",
		"bytes callers asked to write", nil, nil)
	descAccepted = prometheus.NewDesc(namespace+"_bytes_accepted_total",
		"bytes copied into the sink buffer after truncation", nil, nil)
	descFaults = prometheus.NewDesc(namespace+"_write_faults_total",
		"number of writes that faulted while copying", nil, nil)
	descReads = prometheus.NewDesc(namespace+"_reads_rejected_total",
		"number of unsupported read attempts", nil, nil)
	descLastSpeed = prometheus.NewDesc(namespace+"_last_session_megabytes_per_second",
		"throughput of the most recently closed session", nil, nil)
	descLastSeconds = prometheus.NewDesc(namespace+"_last_session_seconds",
		"clamped duration of the most recently closed session", nil, nil)
)

// promCollector exposes a Collector through the prometheus.Collector
// interface without copying its counters.
type promCollector struct {
	c *Collector
}

// Prometheus returns a prometheus.Collector reading from c.
func (c *Collector) Prometheus() prometheus.Collector {
	return promCollector{c}
}

func (p promCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		descSessions, descActive, descBusy, descWrites, descOffered,
		descAccepted, descFaults, descReads, descLastSpeed, descLastSeconds,
	} {
		ch <- d
	}
}

func (p promCollector) Collect(ch chan<- prometheus.Metric) {
	counter := func(d *prometheus.Desc, v int64) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}
	counter(descSessions, p.c.TotalSessions())
	counter(descBusy, p.c.BusyRejections())
	counter(descWrites, p.c.TotalWrites())
	counter(descOffered, p.c.BytesOffered())
	counter(descAccepted, p.c.BytesAccepted())
	counter(descFaults, p.c.FaultCount())
	counter(descReads, p.c.ReadsRejected())
	ch <- prometheus.MustNewConstMetric(descActive, prometheus.GaugeValue, float64(p.c.ActiveSessions()))

	if r, ok := p.c.LastReport(); ok {
		ch <- prometheus.MustNewConstMetric(descLastSpeed, prometheus.GaugeValue, r.MegabytesPerSecond)
		ch <- prometheus.MustNewConstMetric(descLastSeconds, prometheus.GaugeValue, float64(r.Seconds))
	}
}

// WriteTextfile writes c in the Prometheus text format to path, for
// pickup by a node_exporter textfile collector.
func WriteTextfile(path string, c *Collector) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(c.Prometheus()); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
