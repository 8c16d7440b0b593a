package alert

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/event_bus"
	"github.com/budgetwatch/budgetwatch/internal/utils"
	"github.com/budgetwatch/budgetwatch/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = user.WithUser(context.Background(), user.User{Id: 1})

var alertRepoStub = NewStubAlertRepo()

var service *ServiceImpl
var clock *utils.MockClock
var published []event_bus.AlertCreated

func setup(t *testing.T) func() {
	bus := event_bus.NewEventBus()
	published = nil
	event_bus.SubscribeTyped(bus, event_bus.AlertCreatedEvent, func(e event_bus.EventT[event_bus.AlertCreated]) error {
		published = append(published, e.Data)
		return nil
	})
	clock = &utils.MockClock{FixedNow: time.Date(2025, time.June, 1, 8, 0, 0, 0, time.UTC)}
	service = &ServiceImpl{repo: alertRepoStub, eventBus: bus, clock: clock}
	return func() {
		t.Log("Teardown after test")
		alertRepoStub.Cleanup()
	}
}

func TestServiceImpl_CreateAlert(t *testing.T) {
	t.Run("should store alert and publish event", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.CreateAlert(ctx, Info, "hello", map[string]any{"k": 1})

		// then
		require.NoError(t, err)
		assert.False(t, created.Read)
		assert.Equal(t, clock.Now(), created.TriggeredAt)
		require.Len(t, published, 1)
		assert.Equal(t, created.Id, published[0].Id)
		assert.Equal(t, 1, published[0].UserId)
		assert.Equal(t, "INFO", published[0].Type)
	})

	t.Run("should fail without user identity", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, err := service.CreateAlert(context.Background(), Info, "hello", nil)

		assert.ErrorIs(t, err, user.ErrNoUser)
		assert.Empty(t, published)
	})
}

func TestServiceImpl_CreateUnlessRecent(t *testing.T) {
	t.Run("should skip while an unread alert is within the window", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, created, err := service.CreateUnlessRecent(ctx, 1, LimitWarning, "first", nil)
		require.NoError(t, err)
		require.True(t, created)

		// when
		clock.Advance(23 * time.Hour)
		_, createdAgain, err := service.CreateUnlessRecent(ctx, 1, LimitWarning, "second", nil)

		// then
		require.NoError(t, err)
		assert.False(t, createdAgain)
		assert.Len(t, published, 1)
	})

	t.Run("should create again after the window passes", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _, _ = service.CreateUnlessRecent(ctx, 1, LimitWarning, "first", nil)
		clock.Advance(24*time.Hour + time.Second)
		_, created, err := service.CreateUnlessRecent(ctx, 1, LimitWarning, "second", nil)

		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("should create again once previous alert is read", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _, _ = service.CreateUnlessRecent(ctx, 1, LimitWarning, "first", nil)
		require.NoError(t, service.MarkAllRead(ctx))
		_, created, err := service.CreateUnlessRecent(ctx, 1, LimitWarning, "second", nil)

		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("should not be suppressed by other users or other types", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		_, _, _ = service.CreateUnlessRecent(ctx, 2, LimitWarning, "other user", nil)
		_, _, _ = service.CreateUnlessRecent(ctx, 1, Info, "other type", nil)
		_, created, err := service.CreateUnlessRecent(ctx, 1, LimitWarning, "mine", nil)

		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("should create only one alert under concurrent calls", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()
		service.eventBus = nil

		var createdCount atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, created, err := service.CreateUnlessRecent(ctx, 1, LimitWarning, "race", nil); err == nil && created {
					createdCount.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), createdCount.Load())
	})
}

func TestServiceImpl_ListAndMarkRead(t *testing.T) {
	teardown := setup(t)
	defer teardown()

	// given
	for i := 0; i < 55; i++ {
		_, err := service.CreateAlert(ctx, Info, "n", nil)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	// when
	alerts, err := service.ListAlerts(ctx)

	// then
	require.NoError(t, err)
	assert.Len(t, alerts, 50)
	assert.True(t, alerts[0].TriggeredAt.After(alerts[1].TriggeredAt))

	require.NoError(t, service.MarkRead(ctx, alerts[0].Id))
	otherCtx := user.WithUser(context.Background(), user.User{Id: 2})
	assert.ErrorIs(t, service.MarkRead(otherCtx, alerts[1].Id), ErrAlertNotFound)
}
