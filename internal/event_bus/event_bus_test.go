package event_bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishRunsHandlersInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []int
	for i := 1; i <= 5; i++ {
		n := i
		bus.Subscribe(AlertCreatedEvent, func(e Event) error {
			calls = append(calls, n)
			return nil
		})
	}

	err := bus.Publish(NewEvent(context.Background(), AlertCreatedEvent, AlertCreated{Id: 1}))

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	called := 0
	unsubscribe := bus.Subscribe(AlertCreatedEvent, func(e Event) error {
		called++
		return nil
	})

	unsubscribe()
	err := bus.Publish(NewEvent(context.Background(), AlertCreatedEvent, nil))

	require.NoError(t, err)
	assert.Equal(t, 0, called)
}

func TestEventBus_JoinsHandlerErrorsAndRecoversPanics(t *testing.T) {
	bus := NewEventBus()
	failure := errors.New("mail server down")
	secondCalled := false
	bus.Subscribe(AlertCreatedEvent, func(e Event) error { return failure })
	bus.Subscribe(AlertCreatedEvent, func(e Event) error { panic("boom") })
	bus.Subscribe(AlertCreatedEvent, func(e Event) error {
		secondCalled = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), AlertCreatedEvent, nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	assert.Contains(t, err.Error(), "2 handler(s) failed")
	assert.True(t, secondCalled)
}

func TestEventBus_CancelledContextSkipsHandlers(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.Subscribe(AlertCreatedEvent, func(e Event) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, AlertCreatedEvent, nil))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestSubscribeTyped(t *testing.T) {
	bus := NewEventBus()
	var received []AlertCreated
	SubscribeTyped(bus, AlertCreatedEvent, func(e EventT[AlertCreated]) error {
		received = append(received, e.Data)
		return nil
	})
	triggeredAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, bus.Publish(NewEvent(context.Background(), AlertCreatedEvent, AlertCreated{
		Id: 3, UserId: 2, Type: "LIMIT_WARNING", Message: "limit", TriggeredAt: triggeredAt,
	})))
	// payloads of another type are ignored
	require.NoError(t, bus.Publish(NewEvent(context.Background(), AlertCreatedEvent, "not an alert")))

	require.Len(t, received, 1)
	assert.Equal(t, 3, received[0].Id)
	assert.Equal(t, triggeredAt, received[0].TriggeredAt)
}

func TestEventBus_StopsWhenContextEndsDuringPublish(t *testing.T) {
	bus := NewEventBus()
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string
	bus.Subscribe(AlertCreatedEvent, func(e Event) error {
		calls = append(calls, "first")
		cancel()
		return nil
	})
	bus.Subscribe(AlertCreatedEvent, func(e Event) error {
		calls = append(calls, "second")
		return nil
	})

	err := bus.Publish(NewEvent(ctx, AlertCreatedEvent, AlertCreated{Id: 1}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, calls)
}

func TestEventBus_UnsubscribeKeepsOtherHandlersInOrder(t *testing.T) {
	bus := NewEventBus()
	var calls []int
	bus.Subscribe(AlertCreatedEvent, func(e Event) error { calls = append(calls, 1); return nil })
	unsubscribe := bus.Subscribe(AlertCreatedEvent, func(e Event) error { calls = append(calls, 2); return nil })
	bus.Subscribe(AlertCreatedEvent, func(e Event) error { calls = append(calls, 3); return nil })

	unsubscribe()
	unsubscribe()
	require.NoError(t, bus.Publish(NewEvent(context.Background(), AlertCreatedEvent, nil)))

	assert.Equal(t, []int{1, 3}, calls)
}
