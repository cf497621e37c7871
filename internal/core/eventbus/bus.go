package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus dispatches published events to subscribers on a single goroutine
// started with Start. Publishing never blocks: when the buffer is full the
// event is dropped and counted, and observers are told.
type EventBus struct {
	ch     chan envelope
	counts counters

	mu          sync.RWMutex
	subscribers map[Event][]func(any)
	observers   []Observer
}

// New creates a bus with the given buffer size.
func New(size int) *EventBus {
	if size <= 0 {
		size = 64
	}
	return &EventBus{
		ch:          make(chan envelope, size),
		subscribers: make(map[Event][]func(any)),
	}
}

// Start dispatches events until ctx is done. Events still buffered when ctx
// ends are delivered before Start returns.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			bus.drain()
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) drain() {
	for {
		select {
		case env := <-bus.ch:
			bus.dispatch(env)
		default:
			return
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	subs := make([]func(any), len(bus.subscribers[env.event]))
	copy(subs, bus.subscribers[env.event])
	bus.mu.RUnlock()

	for _, fn := range subs {
		bus.call(env, fn)
	}
}

func (bus *EventBus) call(env envelope, fn func(any)) {
	defer func() {
		if r := recover(); r != nil {
			bus.recovered(env, r)
		}
	}()
	fn(env.payload)
}

func (bus *EventBus) subscribe(event Event, fn func(any)) {
	bus.mu.Lock()
	bus.subscribers[event] = append(bus.subscribers[event], fn)
	bus.mu.Unlock()
}

// Typed publish/subscribe pairs. Subscribers run on the bus goroutine.

func (bus *EventBus) PublishActionTriggered(p ActionTriggeredPayload) {
	bus.send(EventActionTriggered, p)
}

func (bus *EventBus) SubscribeActionTriggered(fn func(ActionTriggeredPayload)) {
	bus.subscribe(EventActionTriggered, func(p any) { fn(p.(ActionTriggeredPayload)) })
}

func (bus *EventBus) PublishConfigChanged(p ConfigChangedPayload) {
	bus.send(EventConfigChanged, p)
}

func (bus *EventBus) SubscribeConfigChanged(fn func(ConfigChangedPayload)) {
	bus.subscribe(EventConfigChanged, func(p any) { fn(p.(ConfigChangedPayload)) })
}

func (bus *EventBus) PublishConfigGenerated(p ConfigGeneratedPayload) {
	bus.send(EventConfigGenerated, p)
}

func (bus *EventBus) SubscribeConfigGenerated(fn func(ConfigGeneratedPayload)) {
	bus.subscribe(EventConfigGenerated, func(p any) { fn(p.(ConfigGeneratedPayload)) })
}

func (bus *EventBus) PublishNotificationPublished(p NotificationPublishedPayload) {
	bus.send(EventNotificationPublished, p)
}

func (bus *EventBus) SubscribeNotificationPublished(fn func(NotificationPublishedPayload)) {
	bus.subscribe(EventNotificationPublished, func(p any) { fn(p.(NotificationPublishedPayload)) })
}

func (bus *EventBus) PublishTodoCompleted(p TodoCompletedPayload) {
	bus.send(EventTodoCompleted, p)
}

func (bus *EventBus) SubscribeTodoCompleted(fn func(TodoCompletedPayload)) {
	bus.subscribe(EventTodoCompleted, func(p any) { fn(p.(TodoCompletedPayload)) })
}
