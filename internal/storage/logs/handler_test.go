package logs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type stubSink struct {
	batches [][]Entry
	err     error
}

func (s *stubSink) InsertLogs(_ context.Context, entries []Entry) error {
	s.batches = append(s.batches, entries)
	return s.err
}

func TestRunHandler_BuffersUntilFlush(t *testing.T) {
	handler := NewRunHandler("run-1", slog.LevelInfo, 0)
	logger := slog.New(handler)

	logger.Info("hello", "foo", "bar")
	logger.Debug("filtered")

	pending, dropped := handler.Pending()
	if len(pending) != 1 || dropped != 0 {
		t.Fatalf("Pending() = %d entries, %d dropped, want 1 and 0", len(pending), dropped)
	}

	sink := &stubSink{}
	if err := handler.Flush(context.Background(), sink, time.Second); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("sink got %v, want one batch of one entry", sink.batches)
	}
	entry := sink.batches[0][0]
	if entry.RunID != "run-1" || entry.Message != "hello" || entry.Level != slog.LevelInfo.String() {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Attrs["foo"] != "bar" {
		t.Fatalf("attrs.foo = %#v, want bar", entry.Attrs["foo"])
	}
	if pending, _ := handler.Pending(); len(pending) != 0 {
		t.Fatalf("Pending() after Flush = %d entries, want 0", len(pending))
	}
}

func TestRunHandler_GroupedAttrs(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 0)
	logger := slog.New(handler).WithGroup("ctx").With("provider", "OP.GG")

	logger.Info("grouped")

	pending, _ := handler.Pending()
	if len(pending) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(pending))
	}
	group, ok := pending[0].Attrs["ctx"].(map[string]any)
	if !ok {
		t.Fatalf("expected ctx group map, got %#v", pending[0].Attrs["ctx"])
	}
	if group["provider"] != "OP.GG" {
		t.Fatalf("expected ctx.provider=OP.GG, got %#v", group["provider"])
	}
}

func TestRunHandler_MergesGroupAttrsWithSameKey(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 0)
	slog.New(handler).Info("grouped",
		slog.Group("http", slog.String("method", "GET")),
		slog.Group("http", slog.Int("status", 200)),
	)

	pending, _ := handler.Pending()
	httpGroup, ok := pending[0].Attrs["http"].(map[string]any)
	if !ok {
		t.Fatalf("expected http group map, got %#v", pending[0].Attrs["http"])
	}
	if httpGroup["method"] != "GET" || httpGroup["status"] != int64(200) {
		t.Fatalf("http group = %#v", httpGroup)
	}
}

func TestRunHandler_FormatsErrorAndDuration(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 0)
	slog.New(handler).Error("boom", "error", errors.New("kaboom"), "took", 1500*time.Millisecond)

	pending, _ := handler.Pending()
	if pending[0].Attrs["error"] != "kaboom" {
		t.Fatalf("attrs.error = %#v, want kaboom", pending[0].Attrs["error"])
	}
	if pending[0].Attrs["took"] != "1.5s" {
		t.Fatalf("attrs.took = %#v, want 1.5s", pending[0].Attrs["took"])
	}
}

func TestRunHandler_DropsPastLimit(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 2)
	logger := slog.New(handler)
	for range 5 {
		logger.Info("line")
	}
	if pending, dropped := handler.Pending(); len(pending) != 2 || dropped != 3 {
		t.Fatalf("Pending() = %d entries, %d dropped, want 2 and 3", len(pending), dropped)
	}

	sink := &stubSink{}
	if err := handler.Flush(context.Background(), sink, time.Second); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	last := sink.batches[0][len(sink.batches[0])-1]
	if last.Attrs["dropped"] != 3 {
		t.Fatalf("last entry = %+v, want dropped marker", last)
	}
}

func TestRunHandler_FlushFailureKeepsEntries(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 0)
	slog.New(handler).Info("keep me")

	if err := handler.Flush(context.Background(), &stubSink{err: errors.New("db down")}, time.Second); err == nil {
		t.Fatalf("Flush() error = nil, want error")
	}
	if pending, _ := handler.Pending(); len(pending) != 1 {
		t.Fatalf("Pending() after failed Flush = %d, want 1", len(pending))
	}
}

func TestRunHandler_FlushFailureKeepsDropCount(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 2)
	logger := slog.New(handler)
	for range 5 {
		logger.Info("line")
	}

	failing := &stubSink{err: errors.New("db down")}
	if err := handler.Flush(context.Background(), failing, time.Second); err == nil {
		t.Fatalf("Flush() error = nil, want error")
	}
	if len(failing.batches) != 1 || len(failing.batches[0]) != 3 {
		t.Fatalf("failed batch = %v, want 2 entries plus drop marker", failing.batches)
	}
	pending, dropped := handler.Pending()
	if len(pending) != 2 || dropped != 3 {
		t.Fatalf("Pending() after failed Flush = %d entries, %d dropped, want 2 and 3", len(pending), dropped)
	}
	for _, e := range pending {
		if e.Message != "line" {
			t.Fatalf("drop marker was buffered as an entry: %+v", e)
		}
	}

	logger.Info("after failure")
	if pending, dropped := handler.Pending(); len(pending) != 2 || dropped != 4 {
		t.Fatalf("Pending() = %d entries, %d dropped, want 2 and 4", len(pending), dropped)
	}

	sink := &stubSink{}
	if err := handler.Flush(context.Background(), sink, time.Second); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	batch := sink.batches[0]
	if len(batch) != 3 || batch[2].Attrs["dropped"] != 4 {
		t.Fatalf("retry batch = %+v, want 2 entries and a marker for 4 drops", batch)
	}
}

func TestRunHandler_FlushNilSink(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 0)
	slog.New(handler).Info("hello")
	if err := handler.Flush(context.Background(), nil, 0); err != nil {
		t.Fatalf("Flush(nil) error = %v", err)
	}
}

func TestRunHandler_ConcurrentHandle(t *testing.T) {
	handler := NewRunHandler("run", slog.LevelInfo, 0)
	logger := slog.New(handler).With("worker", true)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for range 25 {
				logger.Info("tick", "i", i)
			}
		})
	}
	wg.Wait()
	if pending, _ := handler.Pending(); len(pending) != 200 {
		t.Fatalf("Pending() = %d entries, want 200", len(pending))
	}
}

func TestMultiHandler_RunHandlerReceivesDebugWhenTerminalFilters(t *testing.T) {
	textHandler := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})
	runHandler := NewRunHandler("run", slog.LevelDebug, 0)
	logger := slog.New(slog.NewMultiHandler(textHandler, runHandler))

	logger.Debug("debug-log", "scope", "db")

	pending, _ := runHandler.Pending()
	if len(pending) != 1 || pending[0].Level != slog.LevelDebug.String() {
		t.Fatalf("Pending() = %+v, want one debug entry", pending)
	}
}
