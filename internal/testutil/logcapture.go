package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// Record is one captured log entry with its attributes flattened.
type Record struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogCapture is a slog.Handler that keeps every record in memory.
//
// Thread-safety: safe for concurrent use; handlers derived with WithAttrs
// share the parent's record list.
type LogCapture struct {
	mu      *sync.Mutex
	records *[]Record
	attrs   []slog.Attr
	group   string
}

// NewLogCapture returns a logger writing to a fresh LogCapture, and the
// capture itself. Every level, debug included, is recorded.
func NewLogCapture() (*slog.Logger, *LogCapture) {
	c := &LogCapture{mu: &sync.Mutex{}, records: &[]Record{}}
	return slog.New(c), c
}

// Enabled implements slog.Handler.
func (c *LogCapture) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (c *LogCapture) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(c.attrs)+r.NumAttrs())
	for _, a := range c.attrs {
		attrs[c.key(a.Key)] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[c.key(a.Key)] = a.Value.Any()
		return true
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	*c.records = append(*c.records, Record{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

// WithAttrs implements slog.Handler.
func (c *LogCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *c
	next.attrs = append(append([]slog.Attr(nil), c.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler. Group names prefix attribute keys.
func (c *LogCapture) WithGroup(name string) slog.Handler {
	next := *c
	next.group = c.key(name)
	return &next
}

func (c *LogCapture) key(k string) string {
	if c.group == "" {
		return k
	}
	return c.group + "." + k
}

// Records returns a copy of everything captured so far.
func (c *LogCapture) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Record(nil), *c.records...)
}

// AtLevel returns the records logged at exactly level.
func (c *LogCapture) AtLevel(level slog.Level) []Record {
	var out []Record
	for _, r := range c.Records() {
		if r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// Warnings returns the messages of all warning records, in order.
func (c *LogCapture) Warnings() []string {
	var out []string
	for _, r := range c.AtLevel(slog.LevelWarn) {
		out = append(out, r.Message)
	}
	return out
}

// Reset discards captured records.
func (c *LogCapture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.records = nil
}
