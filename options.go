package stegdb

import (
	"log/slog"

	"github.com/hantyrram/stegdb/codec"
	"github.com/hantyrram/stegdb/storage"
)

// DefaultSnapshotDir is the directory CreateSnapshot writes to unless
// WithSnapshotDir is used.
const DefaultSnapshotDir = "data"

// AdapterFactory builds the storage adapter for a data-source path.
type AdapterFactory func(path string) (storage.Adapter, error)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	snapshotDir      string
	snapshotIOLimit  int64
	adapterFactory   AdapterFactory
	compression      storage.Compression
}

// Option configures DB and Connection behavior.
type Option func(*options)

// WithCodec configures the codec used to serialize the database tree.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithLogger sets a custom logger.
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel enables text logging to stderr at the given level.
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector sets a custom metrics collector for monitoring.
//
// Example:
//
//	metrics := &stegdb.BasicMetricsCollector{}
//	db, err := stegdb.Connect(ctx, "db.png", stegdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithSnapshotDir sets the directory CreateSnapshot writes backups to.
func WithSnapshotDir(dir string) Option {
	return func(o *options) {
		if dir == "" {
			dir = DefaultSnapshotDir
		}
		o.snapshotDir = dir
	}
}

// WithSnapshotIOLimit caps snapshot reads and writes at bytesPerSec.
// Zero disables the limit.
func WithSnapshotIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.snapshotIOLimit = max(bytesPerSec, 0)
	}
}

// WithAdapterFactory overrides how a Connection turns its path into a
// storage adapter.
func WithAdapterFactory(f AdapterFactory) Option {
	return func(o *options) {
		o.adapterFactory = f
	}
}

// WithCompression makes a Connection wrap its adapter in a
// storage.Compressed adapter using algo.
func WithCompression(algo storage.Compression) Option {
	return func(o *options) {
		o.compression = algo
	}
}

func defaultOptions() options {
	return options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		snapshotDir:      DefaultSnapshotDir,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
