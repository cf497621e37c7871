package eventbus

import "sync/atomic"

// Observer watches bus traffic without subscribing to a topic. Methods run
// on the publishing goroutine for Published and Dropped, and on the bus
// goroutine for Recovered.
type Observer interface {
	Published(event Event, payload any)
	Dropped(event Event, payload any)
	Recovered(event Event, payload any, panicValue any)
}

// Stats counts bus traffic since New.
type Stats struct {
	Published uint64
	Dropped   uint64
	Panics    uint64
}

type counters struct {
	published atomic.Uint64
	dropped   atomic.Uint64
	panics    atomic.Uint64
}

// Observe adds o to the bus. Observers cannot be removed.
func (bus *EventBus) Observe(o Observer) {
	bus.mu.Lock()
	bus.observers = append(bus.observers, o)
	bus.mu.Unlock()
}

// Stats returns a snapshot of the traffic counters.
func (bus *EventBus) Stats() Stats {
	return Stats{
		Published: bus.counts.published.Load(),
		Dropped:   bus.counts.dropped.Load(),
		Panics:    bus.counts.panics.Load(),
	}
}

func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		bus.counts.published.Add(1)
		for _, o := range bus.snapshotObservers() {
			o.Published(event, payload)
		}
	default:
		bus.counts.dropped.Add(1)
		for _, o := range bus.snapshotObservers() {
			o.Dropped(event, payload)
		}
	}
}

func (bus *EventBus) recovered(env envelope, v any) {
	bus.counts.panics.Add(1)
	for _, o := range bus.snapshotObservers() {
		func() {
			defer func() { _ = recover() }()
			o.Recovered(env.event, env.payload, v)
		}()
	}
}

func (bus *EventBus) snapshotObservers() []Observer {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return append([]Observer(nil), bus.observers...)
}
