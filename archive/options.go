package archive

import (
	"log/slog"

	"github.com/hupe1980/sceneconv/codec"
	"github.com/hupe1980/sceneconv/internal/cache"
	"github.com/hupe1980/sceneconv/internal/resource"
)

type writerOptions struct {
	compression   Compression
	codec         codec.Codec
	formatVersion int
	logger        *slog.Logger
	rc            *resource.Controller
}

func defaultWriterOptions() writerOptions {
	return writerOptions{
		compression:   CompressionLZ4,
		codec:         codec.Default,
		formatVersion: FormatVersionCurrent,
		logger:        slog.New(slog.DiscardHandler),
	}
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithCompression sets the block compression. Default LZ4.
func WithCompression(c Compression) WriterOption {
	return func(o *writerOptions) { o.compression = c }
}

// WithCodec sets the manifest codec. The codec name is stored in the header
// and must resolve through codec.ByName when the archive is opened.
func WithCodec(c codec.Codec) WriterOption {
	return func(o *writerOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithFormatVersion stamps the archive with an explicit format version.
// Version 1 produces archives read through the legacy readers.
func WithFormatVersion(v int) WriterOption {
	return func(o *writerOptions) { o.formatVersion = v }
}

// WithWriterLogger sets the writer's logger.
func WithWriterLogger(l *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWriterResourceController throttles block writes through rc.
func WithWriterResourceController(rc *resource.Controller) WriterOption {
	return func(o *writerOptions) { o.rc = rc }
}

type readerOptions struct {
	cache  cache.BlockCache
	rc     *resource.Controller
	logger *slog.Logger
}

func defaultReaderOptions() readerOptions {
	return readerOptions{
		logger: slog.New(slog.DiscardHandler),
	}
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerOptions)

// WithBlockCache caches decompressed sample blocks. Without a cache every
// read decompresses its block.
func WithBlockCache(c cache.BlockCache) ReaderOption {
	return func(o *readerOptions) { o.cache = c }
}

// WithResourceController bounds decompression memory and read IO through rc.
func WithResourceController(rc *resource.Controller) ReaderOption {
	return func(o *readerOptions) { o.rc = rc }
}

// WithLogger sets the reader's logger.
func WithLogger(l *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
