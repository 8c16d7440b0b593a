package user

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/budgetwatch/budgetwatch/internal/test_utils"
	"github.com/google/uuid"
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

func TestUserRepoImpl_CreateUser(t *testing.T) {
	t.Run("should store and read back user", func(t *testing.T) {
		// given
		test_utils.CleanDB(t, db)
		repo := NewUserRepo(db)
		ctx := context.Background()

		// when
		id, err := repo.CreateUser(ctx, User{Uid: uuid.NewString(), Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"})
		require.NoError(t, err)

		// then
		stored, err := repo.GetUserByEmail(ctx, "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, stored.Id)
		assert.Equal(t, "Ana", stored.Name)
	})

	t.Run("should report taken email for duplicate insert", func(t *testing.T) {
		// given
		test_utils.CleanDB(t, db)
		repo := NewUserRepo(db)
		ctx := context.Background()
		_, err := repo.CreateUser(ctx, User{Uid: uuid.NewString(), Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"})
		require.NoError(t, err)

		// when
		_, err = repo.CreateUser(ctx, User{Uid: uuid.NewString(), Name: "Ana 2", Email: "ana@example.com", PasswordHash: "hash"})

		// then
		assert.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("should let only one of concurrent inserts win", func(t *testing.T) {
		// given
		test_utils.CleanDB(t, db)
		repo := NewUserRepo(db)
		ctx := context.Background()
		var wg sync.WaitGroup
		errs := make([]error, 8)

		// when
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = repo.CreateUser(ctx, User{Uid: uuid.NewString(), Name: "Ana", Email: "ana@example.com", PasswordHash: "hash"})
			}(i)
		}
		wg.Wait()

		// then
		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, ErrEmailTaken), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)
	})
}
