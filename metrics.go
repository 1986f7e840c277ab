package stegdb

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the metrics
// package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// count is the number of documents in the request.
	RecordInsert(count int, duration time.Duration, err error)

	// RecordFind is called after each read query.
	// returned is the number of documents handed back.
	RecordFind(returned int, duration time.Duration, err error)

	// RecordUpdate is called after each update operation.
	RecordUpdate(updated int, duration time.Duration, err error)

	// RecordDelete is called after each delete operation.
	RecordDelete(deleted int, duration time.Duration, err error)

	// RecordCommit is called after each flush through the storage adapter.
	// bytes is the size of the serialized tree.
	RecordCommit(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFind(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordUpdate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDelete(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCommit(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertDocuments  atomic.Int64
	InsertErrors     atomic.Int64
	FindCount        atomic.Int64
	FindErrors       atomic.Int64
	FindTotalNanos   atomic.Int64
	UpdateCount      atomic.Int64
	UpdateDocuments  atomic.Int64
	UpdateErrors     atomic.Int64
	DeleteCount      atomic.Int64
	DeleteDocuments  atomic.Int64
	DeleteErrors     atomic.Int64
	CommitCount      atomic.Int64
	CommitErrors     atomic.Int64
	CommitBytes      atomic.Int64
	CommitTotalNanos atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(count int, _ time.Duration, err error) {
	b.InsertCount.Add(1)
	if err != nil {
		b.InsertErrors.Add(1)
		return
	}
	b.InsertDocuments.Add(int64(count))
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(_ int, duration time.Duration, err error) {
	b.FindCount.Add(1)
	b.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FindErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(updated int, _ time.Duration, err error) {
	b.UpdateCount.Add(1)
	b.UpdateDocuments.Add(int64(updated))
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(deleted int, _ time.Duration, err error) {
	b.DeleteCount.Add(1)
	b.DeleteDocuments.Add(int64(deleted))
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordCommit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCommit(bytes int, duration time.Duration, err error) {
	b.CommitCount.Add(1)
	b.CommitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CommitErrors.Add(1)
		return
	}
	b.CommitBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:     b.InsertCount.Load(),
		InsertDocuments: b.InsertDocuments.Load(),
		InsertErrors:    b.InsertErrors.Load(),
		FindCount:       b.FindCount.Load(),
		FindErrors:      b.FindErrors.Load(),
		FindAvgNanos:    avg(b.FindTotalNanos.Load(), b.FindCount.Load()),
		UpdateCount:     b.UpdateCount.Load(),
		UpdateDocuments: b.UpdateDocuments.Load(),
		UpdateErrors:    b.UpdateErrors.Load(),
		DeleteCount:     b.DeleteCount.Load(),
		DeleteDocuments: b.DeleteDocuments.Load(),
		DeleteErrors:    b.DeleteErrors.Load(),
		CommitCount:     b.CommitCount.Load(),
		CommitErrors:    b.CommitErrors.Load(),
		CommitBytes:     b.CommitBytes.Load(),
		CommitAvgNanos:  avg(b.CommitTotalNanos.Load(), b.CommitCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount     int64
	InsertDocuments int64
	InsertErrors    int64
	FindCount       int64
	FindErrors      int64
	FindAvgNanos    int64
	UpdateCount     int64
	UpdateDocuments int64
	UpdateErrors    int64
	DeleteCount     int64
	DeleteDocuments int64
	DeleteErrors    int64
	CommitCount     int64
	CommitErrors    int64
	CommitBytes     int64
	CommitAvgNanos  int64
}
