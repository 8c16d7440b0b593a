package event_bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type EventType string

// Event carries a payload published by a service together with the request context it came from.
type Event struct {
	ctx        context.Context
	Type       EventType
	OccurredAt time.Time
	Data       any
}

func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{ctx: ctx, Type: eventType, OccurredAt: time.Now(), Data: data}
}

func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is an Event whose payload has already been asserted to T.
type EventT[T any] struct {
	Event
	Data T
}

type subscription struct {
	id     uint64
	handle func(Event) error
}

// EventBus dispatches events synchronously, in subscription order, on the publisher's goroutine.
type EventBus struct {
	mu     sync.RWMutex
	lastId uint64
	subs   map[EventType][]subscription
}

func NewEventBus() *EventBus {
	return &EventBus{subs: map[EventType][]subscription{}}
}

func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.lastId++
	id := eb.lastId
	eb.subs[eventType] = append(eb.subs[eventType], subscription{id: id, handle: h})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		eb.subs[eventType] = slices.DeleteFunc(eb.subs[eventType], func(s subscription) bool { return s.id == id })
	}
}

// SubscribeTyped only calls h for events whose payload is a T.
func SubscribeTyped[T any](eb *EventBus, eventType EventType, h func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("skipping %s event with %T payload", eventType, e.Data)
			return nil
		}
		return h(EventT[T]{Event: e, Data: payload})
	})
}

// Publish runs every handler even when some fail, and returns their errors joined.
// A handler panic counts as a failure. Nothing runs once the event context is done.
func (eb *EventBus) Publish(e Event) error {
	ctx := e.Context()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}

	eb.mu.RLock()
	subs := slices.Clone(eb.subs[e.Type])
	eb.mu.RUnlock()

	var errs []error
	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.call(e); err != nil {
			log.Errorf("handler %d failed for %s: %v", s.id, e.Type, err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %w", e.Type, len(errs), errors.Join(errs...))
	}
	return nil
}

func (s subscription) call(e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %d panicked: %v", s.id, r)
		}
	}()
	return s.handle(e)
}
