package sceneconv

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting conversion metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    reads *prometheus.HistogramVec
//	}
//
//	func (p *PrometheusCollector) RecordRead(schema string, d time.Duration, err error) {
//	    p.reads.WithLabelValues(schema).Observe(d.Seconds())
//	}
type MetricsCollector interface {
	// RecordRead is called after each sample read through a Scene.
	// schema is the archive schema of the object, err is nil if successful.
	RecordRead(schema string, duration time.Duration, err error)

	// RecordWrite is called after each sample written through a Writer.
	RecordWrite(schema string, duration time.Duration, err error)

	// RecordSkip is called when an object has no reader and is skipped.
	RecordSkip(path, schema string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRead(string, time.Duration, error)  {}
func (NoopMetricsCollector) RecordWrite(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordSkip(string, string)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and for the CLI summary.
type BasicMetricsCollector struct {
	ReadCount       atomic.Int64
	ReadErrors      atomic.Int64
	ReadTotalNanos  atomic.Int64
	WriteCount      atomic.Int64
	WriteErrors     atomic.Int64
	WriteTotalNanos atomic.Int64
	SkipCount       atomic.Int64
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(_ string, duration time.Duration, err error) {
	b.ReadCount.Add(1)
	b.ReadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordWrite implements MetricsCollector.
func (b *BasicMetricsCollector) RecordWrite(_ string, duration time.Duration, err error) {
	b.WriteCount.Add(1)
	b.WriteTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.WriteErrors.Add(1)
	}
}

// RecordSkip implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSkip(string, string) {
	b.SkipCount.Add(1)
}

// BasicMetricsStats is a point-in-time snapshot of a BasicMetricsCollector.
type BasicMetricsStats struct {
	ReadCount    int64
	ReadErrors   int64
	AvgReadNanos int64

	WriteCount    int64
	WriteErrors   int64
	AvgWriteNanos int64

	SkipCount int64
}

// GetStats returns a snapshot of the current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		ReadCount:   b.ReadCount.Load(),
		ReadErrors:  b.ReadErrors.Load(),
		WriteCount:  b.WriteCount.Load(),
		WriteErrors: b.WriteErrors.Load(),
		SkipCount:   b.SkipCount.Load(),
	}
	if s.ReadCount > 0 {
		s.AvgReadNanos = b.ReadTotalNanos.Load() / s.ReadCount
	}
	if s.WriteCount > 0 {
		s.AvgWriteNanos = b.WriteTotalNanos.Load() / s.WriteCount
	}
	return s
}
