package logs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultLimit        = 10_000
	DefaultFlushTimeout = 5 * time.Second
)

// Entry is one log record of a run, ready to be stored.
type Entry struct {
	RunID   string
	Time    time.Time
	Level   string
	Message string
	Attrs   map[string]any
}

// Sink stores a batch of entries.
type Sink interface {
	InsertLogs(ctx context.Context, entries []Entry) error
}

type buffer struct {
	mu      sync.Mutex
	entries []Entry
	limit   int
	dropped int
}

// RunHandler keeps the records of one run in memory until Flush hands them
// to a Sink in a single batch. Handlers derived with WithAttrs or WithGroup
// share the parent's buffer.
type RunHandler struct {
	buf    *buffer
	runID  string
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func NewRunHandler(runID string, level slog.Leveler, limit int) *RunHandler {
	lvl := slog.LevelInfo
	if level != nil {
		lvl = level.Level()
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &RunHandler{buf: &buffer{limit: limit}, runID: runID, level: lvl}
}

func (h *RunHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h == nil {
		return false
	}
	return level >= h.level
}

func (h *RunHandler) Handle(_ context.Context, r slog.Record) error {
	if h == nil || h.buf == nil {
		return nil
	}

	data := make(map[string]any)
	for _, attr := range h.attrs {
		addToMap(data, h.groups, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		addToMap(data, h.groups, attr)
		return true
	})

	entry := Entry{
		RunID:   h.runID,
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   data,
	}

	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	if len(h.buf.entries) >= h.buf.limit {
		h.buf.dropped++
		return nil
	}
	h.buf.entries = append(h.buf.entries, entry)
	return nil
}

func (h *RunHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &newH
}

func (h *RunHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &newH
}

// Pending returns a copy of the buffered entries and the number dropped
// because the buffer was full.
func (h *RunHandler) Pending() ([]Entry, int) {
	h.buf.mu.Lock()
	defer h.buf.mu.Unlock()
	return append([]Entry(nil), h.buf.entries...), h.buf.dropped
}

// Flush writes the buffered entries to sink and empties the buffer. Entries
// are kept when the sink fails so a later Flush can retry them.
func (h *RunHandler) Flush(ctx context.Context, sink Sink, timeout time.Duration) error {
	if h == nil || h.buf == nil || sink == nil {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultFlushTimeout
	}

	h.buf.mu.Lock()
	entries := h.buf.entries
	dropped := h.buf.dropped
	h.buf.entries, h.buf.dropped = nil, 0
	h.buf.mu.Unlock()

	batch := entries
	if dropped > 0 {
		batch = append(entries[:len(entries):len(entries)], Entry{
			RunID:   h.runID,
			Time:    time.Now().UTC(),
			Level:   slog.LevelWarn.String(),
			Message: "Log buffer full, records dropped",
			Attrs:   map[string]any{"dropped": dropped},
		})
	}
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := sink.InsertLogs(ctx, batch); err != nil {
		h.buf.restore(entries, dropped)
		return fmt.Errorf("flush %d log entries: %w", len(batch), err)
	}
	return nil
}

// restore puts unsent entries back in front of anything logged since, keeping
// the buffer within its limit. The overflow marker is rebuilt on the next Flush.
func (b *buffer) restore(entries []Entry, dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	merged := append(entries, b.entries...)
	if over := len(merged) - b.limit; over > 0 {
		merged = merged[:b.limit]
		dropped += over
	}
	b.entries = merged
	b.dropped += dropped
}

func addToMap(m map[string]any, groups []string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	for _, g := range groups {
		sub, ok := m[g].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[g] = sub
		}
		m = sub
	}

	if attr.Value.Kind() != slog.KindGroup {
		m[attr.Key] = attrValue(attr.Value)
		return
	}
	target := m
	if attr.Key != "" {
		sub, ok := m[attr.Key].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[attr.Key] = sub
		}
		target = sub
	}
	for _, child := range attr.Value.Group() {
		addToMap(target, nil, child)
	}
}

// attrValue converts v to a JSON friendly value. Errors and Stringers are
// stored as text.
func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC()
	case slog.KindAny:
		switch typed := v.Any().(type) {
		case error:
			return typed.Error()
		case fmt.Stringer:
			return typed.String()
		default:
			return typed
		}
	default:
		return v.Any()
	}
}
