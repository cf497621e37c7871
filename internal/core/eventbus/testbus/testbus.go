// Package testbus runs a real event bus for tests and records every event
// published on it.
package testbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hay-kot/battle/internal/core/eventbus"
)

// RecordedEvent holds a captured event name and payload.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus is a started EventBus that records each successful publish. Recording
// happens on the publishing goroutine, before subscribers run.
type Bus struct {
	*eventbus.EventBus

	mu      sync.Mutex
	events  []RecordedEvent
	changed chan struct{}
}

// New starts a bus that is stopped when the test ends.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{
		EventBus: eventbus.New(64),
		changed:  make(chan struct{}),
	}
	tb.Observe(recorder{tb})

	ctx, cancel := context.WithCancel(context.Background())
	go tb.Start(ctx)
	t.Cleanup(cancel)

	return tb
}

type recorder struct{ tb *Bus }

func (r recorder) Published(event eventbus.Event, payload any) {
	r.tb.mu.Lock()
	r.tb.events = append(r.tb.events, RecordedEvent{Event: event, Payload: payload})
	close(r.tb.changed)
	r.tb.changed = make(chan struct{})
	r.tb.mu.Unlock()
}

func (recorder) Dropped(eventbus.Event, any)        {}
func (recorder) Recovered(eventbus.Event, any, any) {}

// Events returns a copy of all recorded events.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return append([]RecordedEvent(nil), tb.events...)
}

// Of returns the recorded payloads for event, in publish order.
func (tb *Bus) Of(event eventbus.Event) []any {
	var out []any
	for _, e := range tb.Events() {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// Payloads returns the recorded payloads of type T, in publish order.
func Payloads[T any](tb *Bus) []T {
	var out []T
	for _, e := range tb.Events() {
		if p, ok := e.Payload.(T); ok {
			out = append(out, p)
		}
	}
	return out
}

func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// WaitFor blocks until event has been recorded or timeout passes.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		tb.mu.Lock()
		changed := tb.changed
		found := false
		for _, e := range tb.events {
			if e.Event == event {
				found = true
				break
			}
		}
		tb.mu.Unlock()

		if found {
			return true
		}

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, 500*time.Millisecond) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished fails if event is recorded within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	if tb.WaitFor(event, wait) {
		t.Errorf("expected event %q to NOT be published, but it was", event)
	}
}
