package sceneconv

import (
	"log/slog"

	"github.com/hupe1980/sceneconv/archive"
	"github.com/hupe1980/sceneconv/codec"
	"github.com/hupe1980/sceneconv/internal/cache"
	"github.com/hupe1980/sceneconv/internal/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	compression      archive.Compression
	codec            codec.Codec
	formatVersion    int
	cacheBytes       int64
	limits           resource.Config
}

// Option configures Open, Create and the conversion helpers.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := sceneconv.NewJSONLogger(slog.LevelInfo)
//	s, _ := sceneconv.Open(ctx, store, "shot.scn", sceneconv.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for reads and writes.
// Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCompression sets the block compression of created archives.
// Default LZ4.
func WithCompression(c archive.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCodec sets the manifest codec of created archives.
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

// WithFormatVersion stamps created archives with an explicit format version.
// Version 1 archives are read back through the legacy mesh reader.
func WithFormatVersion(v int) Option {
	return func(o *options) {
		o.formatVersion = v
	}
}

// WithBlockCache caches up to bytes of decompressed sample blocks per
// opened archive. Zero disables the cache.
func WithBlockCache(bytes int64) Option {
	return func(o *options) {
		o.cacheBytes = bytes
	}
}

// WithMemoryLimit bounds the memory held by decompressed samples and the
// block cache.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.limits.MemoryLimitBytes = bytes
	}
}

// WithIOLimit throttles archive reads and writes to bytesPerSec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.limits.IOLimitBytesPerSec = bytesPerSec
	}
}

// WithMaxWorkers bounds the number of sources ConvertAll converts at once.
// Above 1, the block cache is sharded.
func WithMaxWorkers(n int64) Option {
	return func(o *options) {
		o.limits.MaxWorkers = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		compression:      archive.CompressionLZ4,
		codec:            codec.Default,
		formatVersion:    archive.FormatVersionCurrent,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// controller returns a resource controller when any limit is set.
func (o *options) controller() *resource.Controller {
	if o.limits == (resource.Config{}) {
		return nil
	}
	return resource.NewController(o.limits)
}

// readerOptions also returns the block cache it created, if any.
func (o *options) readerOptions(rc *resource.Controller) ([]archive.ReaderOption, cache.BlockCache) {
	opts := []archive.ReaderOption{
		archive.WithLogger(o.logger.Logger),
		archive.WithResourceController(rc),
	}
	if o.cacheBytes <= 0 {
		return opts, nil
	}
	var bc cache.BlockCache
	if o.limits.MaxWorkers > 1 {
		// Parallel conversions share one reader; shard to spread lock contention.
		bc = cache.NewShardedLRUBlockCache(o.cacheBytes, rc)
	} else {
		bc = cache.NewLRUBlockCache(o.cacheBytes, rc)
	}
	return append(opts, archive.WithBlockCache(bc)), bc
}

func (o *options) writerOptions(rc *resource.Controller) []archive.WriterOption {
	return []archive.WriterOption{
		archive.WithCompression(o.compression),
		archive.WithCodec(o.codec),
		archive.WithFormatVersion(o.formatVersion),
		archive.WithWriterLogger(o.logger.Logger),
		archive.WithWriterResourceController(rc),
	}
}
