package logging

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Write(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close(context.Context) error { return nil }

func (s *captureSink) snapshot() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]Event, len(s.events))
	copy(copied, s.events)
	return copied
}

func waitForEvents(t *testing.T, sink *captureSink, want int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := sink.snapshot(); len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(sink.snapshot()))
	return nil
}

func newTestRouter(t *testing.T, cfg Config, sink Sink) *Router {
	t.Helper()
	clock := ClockFunc(func() time.Time { return time.UnixMilli(1_700_000_000) })
	router, err := NewRouter(clock, cfg, []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		router.Close(ctx)
	})
	return router
}

func TestPublishReachesSinkWithStampedTime(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	router := newTestRouter(t, DefaultConfig(), sink)

	router.Publish(context.Background(), Event{
		Type:     "combat.damage",
		Tick:     7,
		Severity: SeverityInfo,
		Actor:    EntityRef{ID: "player-1", Kind: EntityKindPlayer},
	})

	events := waitForEvents(t, sink, 1)
	if events[0].Type != "combat.damage" || events[0].Tick != 7 {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("expected the router to stamp the event time")
	}
}

func TestPublishDropsUntypedEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	router := newTestRouter(t, DefaultConfig(), sink)

	router.Publish(context.Background(), Event{Tick: 1})
	router.Publish(context.Background(), Event{Type: "lifecycle.spawned"})

	events := waitForEvents(t, sink, 1)
	if len(events) != 1 {
		t.Fatalf("expected the untyped event dropped, got %d events", len(events))
	}
}

func TestMinimumSeverityFilters(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityWarn
	sink := &captureSink{}
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), Event{Type: "a", Severity: SeverityDebug})
	router.Publish(context.Background(), Event{Type: "b", Severity: SeverityInfo})
	router.Publish(context.Background(), Event{Type: "c", Severity: SeverityError})

	events := waitForEvents(t, sink, 1)
	if len(events) != 1 || events[0].Type != "c" {
		t.Fatalf("expected only the error event through, got %+v", events)
	}
}

func TestPublishStampsUnsetSeverityAsInfo(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	router := newTestRouter(t, DefaultConfig(), sink)

	router.Publish(context.Background(), Event{Type: "lifecycle.spawned"})
	router.Publish(context.Background(), Event{Type: "combat.trace", Severity: SeverityDebug})

	events := waitForEvents(t, sink, 1)
	if len(events) != 1 || events[0].Type != "lifecycle.spawned" {
		t.Fatalf("expected only the unset-severity event through the info filter, got %+v", events)
	}
	if events[0].Severity != SeverityInfo {
		t.Fatalf("expected unset severity stamped as info, got %d", events[0].Severity)
	}
}

func TestStaticFieldsMergeWithoutOverride(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"server": "test-1", "shard": "alpha"}
	sink := &captureSink{}
	router := newTestRouter(t, cfg, sink)

	router.Publish(context.Background(), Event{
		Type:  "system.boot",
		Extra: map[string]any{"shard": "explicit"},
	})

	events := waitForEvents(t, sink, 1)
	if events[0].Extra["server"] != "test-1" {
		t.Fatalf("expected static field merged, got %+v", events[0].Extra)
	}
	if events[0].Extra["shard"] != "explicit" {
		t.Fatalf("expected event field to win over static field, got %+v", events[0].Extra)
	}
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	clock := ClockFunc(func() time.Time { return time.UnixMilli(1_700_000_000) })
	router, err := NewRouter(clock, DefaultConfig(), []NamedSink{{Name: "capture", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := router.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	router.Publish(context.Background(), Event{Type: "late"})
	if err := router.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	for _, event := range sink.snapshot() {
		if event.Type == "late" {
			t.Fatalf("expected post-close publish dropped")
		}
	}
}

func TestStatsCountForwardedEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	router := newTestRouter(t, DefaultConfig(), sink)

	for i := 0; i < 5; i++ {
		router.Publish(context.Background(), Event{Type: "tick"})
	}
	waitForEvents(t, sink, 5)
	if stats := router.Stats(); stats.EventsTotal != 5 {
		t.Fatalf("expected 5 events counted, got %+v", stats)
	}
}
