// Package metrics provides a Prometheus implementation of
// stegdb.MetricsCollector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hantyrram/stegdb"
)

var _ stegdb.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector records stegdb operations as Prometheus metrics.
type PrometheusCollector struct {
	opLatency   *prometheus.HistogramVec
	operations  *prometheus.CounterVec
	documents   *prometheus.CounterVec
	commitBytes prometheus.Gauge
}

// NewPrometheusCollector creates a collector and registers its metrics with
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stegdb_operation_latency_seconds",
			Help:    "Latency of database operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stegdb_operations_total",
			Help: "Total database operations",
		}, []string{"op", "status"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stegdb_documents_total",
			Help: "Documents inserted, returned, updated or deleted",
		}, []string{"op"}),
		commitBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stegdb_commit_size_bytes",
			Help: "Size of the last committed database content",
		}),
	}

	reg.MustRegister(c.opLatency, c.operations, c.documents, c.commitBytes)
	return c
}

func (c *PrometheusCollector) record(op string, n int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.opLatency.WithLabelValues(op, status).Observe(duration.Seconds())
	c.operations.WithLabelValues(op, status).Inc()
	if err == nil && n > 0 {
		c.documents.WithLabelValues(op).Add(float64(n))
	}
}

// RecordInsert implements stegdb.MetricsCollector.
func (c *PrometheusCollector) RecordInsert(count int, duration time.Duration, err error) {
	c.record("insert", count, duration, err)
}

// RecordFind implements stegdb.MetricsCollector.
func (c *PrometheusCollector) RecordFind(returned int, duration time.Duration, err error) {
	c.record("find", returned, duration, err)
}

// RecordUpdate implements stegdb.MetricsCollector.
func (c *PrometheusCollector) RecordUpdate(updated int, duration time.Duration, err error) {
	c.record("update", updated, duration, err)
}

// RecordDelete implements stegdb.MetricsCollector.
func (c *PrometheusCollector) RecordDelete(deleted int, duration time.Duration, err error) {
	c.record("delete", deleted, duration, err)
}

// RecordCommit implements stegdb.MetricsCollector.
func (c *PrometheusCollector) RecordCommit(bytes int, duration time.Duration, err error) {
	c.record("commit", 0, duration, err)
	if err == nil {
		c.commitBytes.Set(float64(bytes))
	}
}
