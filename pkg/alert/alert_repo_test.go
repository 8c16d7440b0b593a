package alert

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	var cleanup func()
	db, cleanup = test_utils.TestWithDB()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func TestRepositoryImpl_CreateIfNoRecentUnread(t *testing.T) {
	test_utils.CleanDB(t, db)
	userId := test_utils.InsertUser(t, db, "ana@example.com")
	repo := NewAlertRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	warning := Alert{
		Type:        LimitWarning,
		Message:     "limit",
		Metadata:    map[string]any{"usedPercent": 92.5},
		TriggeredAt: now,
	}

	t.Run("should create only one alert for concurrent callers", func(t *testing.T) {
		var createdCount atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, created, err := repo.CreateIfNoRecentUnread(ctx, userId, warning, now.Add(-24*time.Hour))
				if err == nil && created {
					createdCount.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), createdCount.Load())
	})

	t.Run("should keep metadata and order newest first", func(t *testing.T) {
		_, err := repo.Create(ctx, userId, Alert{Type: Info, Message: "later", TriggeredAt: now.Add(time.Minute)})
		require.NoError(t, err)

		alerts, err := repo.List(ctx, userId, 50)

		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, "later", alerts[0].Message)
		assert.Equal(t, 92.5, alerts[1].Metadata["usedPercent"])
	})

	t.Run("should allow a new alert after mark all read", func(t *testing.T) {
		updated, err := repo.MarkAllRead(ctx, userId)
		require.NoError(t, err)
		assert.Equal(t, int64(2), updated)

		_, created, err := repo.CreateIfNoRecentUnread(ctx, userId, warning, now.Add(-24*time.Hour))

		require.NoError(t, err)
		assert.True(t, created)
	})
}
