package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is a captured log record with its attributes flattened.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// LogRecorder is a slog.Handler that keeps every record in memory.
type LogRecorder struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
}

// NewLogRecorder returns an empty recorder.
func NewLogRecorder() *LogRecorder {
	return &LogRecorder{mu: &sync.Mutex{}, records: &[]Record{}}
}

// Logger returns a logger writing to the recorder.
func (h *LogRecorder) Logger() *slog.Logger { return slog.New(h) }

func (h *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (h *LogRecorder) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Level: r.Level, Message: r.Message, Attrs: make(map[string]string)}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.String()
		return true
	})

	h.mu.Lock()
	*h.records = append(*h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &c
}

// WithGroup is a no-op; group names are not recorded.
func (h *LogRecorder) WithGroup(string) slog.Handler { return h }

// Records returns a copy of everything recorded so far.
func (h *LogRecorder) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), *h.records...)
}

// Warnings returns the records at warning level.
func (h *LogRecorder) Warnings() []Record {
	var out []Record
	for _, r := range h.Records() {
		if r.Level == slog.LevelWarn {
			out = append(out, r)
		}
	}
	return out
}

// Reset drops all records.
func (h *LogRecorder) Reset() {
	h.mu.Lock()
	*h.records = (*h.records)[:0]
	h.mu.Unlock()
}
