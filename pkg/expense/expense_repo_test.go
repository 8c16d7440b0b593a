package expense

import (
	"context"
	"os"
	"testing"

	"github.com/budgetwatch/budgetwatch/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
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

func TestRepositoryImpl_StoreAndList(t *testing.T) {
	// given
	test_utils.CleanDB(t, db)
	userId := test_utils.InsertUser(t, db, "ana@example.com")
	repo := NewExpenseRepo(db)
	ctx := context.Background()
	value, _ := decimal.NewFromString("39.90")

	// when
	stored, err := repo.Store(ctx, userId, Expense{Title: "Netflix", LogoUrl: "https://cdn.example.com/n.png", Value: value, Frequency: Monthly})
	require.NoError(t, err)
	_, err = repo.Store(ctx, userId, Expense{Title: "Car tax", Value: decimal.NewFromInt(1200), Frequency: Annual})
	require.NoError(t, err)

	// then
	expenses, err := repo.List(ctx, userId)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Car tax", expenses[0].Title)
	assert.Equal(t, "", expenses[0].Description)
	assert.Equal(t, stored.Id, expenses[1].Id)
	assert.True(t, value.Equal(expenses[1].Value))
	assert.Equal(t, "https://cdn.example.com/n.png", expenses[1].LogoUrl)
}

func TestRepositoryImpl_Update_ScopedToOwner(t *testing.T) {
	test_utils.CleanDB(t, db)
	ctx := context.Background()
	userId := test_utils.InsertUser(t, db, "ana@example.com")
	otherUserId := test_utils.InsertUser(t, db, "bob@example.com")
	repo := NewExpenseRepo(db)
	stored, err := repo.Store(ctx, userId, Expense{Title: "Rent", Value: decimal.NewFromInt(1000), Frequency: Monthly})
	require.NoError(t, err)

	stored.Frequency = OneTime
	_, err = repo.Update(ctx, otherUserId, stored)
	assert.ErrorIs(t, err, ErrExpenseNotFound)

	updated, err := repo.Update(ctx, userId, stored)
	require.NoError(t, err)
	assert.Equal(t, OneTime, updated.Frequency)
}
