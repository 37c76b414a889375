package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foodCategoryID = "8f14e45f-ceea-467a-9b36-1f0b5a7c0001"

// runRepositoryContract checks the behavior every Repository implementation
// shares. Each run uses fresh accounts so it can share a database.
func runRepositoryContract(t *testing.T, repo Repository) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, repo) })
	t.Run("token revocation", func(t *testing.T) { testTokenRevocation(t, repo) })
	t.Run("categories", func(t *testing.T) { testCategories(t, repo) })
	t.Run("goals", func(t *testing.T) { testGoals(t, repo) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, repo) })
}

func newAccount(t *testing.T, repo Repository) *models.Account {
	t.Helper()
	account := &models.Account{
		Email:        uuid.NewString() + "@example.com",
		Name:         "Repo Test",
		PasswordHash: "hash",
		Active:       true,
	}
	require.NoError(t, repo.CreateAccount(context.Background(), account))
	return account
}

func testAccounts(t *testing.T, repo Repository) {
	ctx := context.Background()
	account := newAccount(t, repo)
	assert.NotEmpty(t, account.ID)

	found, err := repo.GetAccountByEmail(ctx, strings.ToUpper(account.Email))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, account.ID, found.ID)

	duplicate := &models.Account{Email: account.Email, Name: "Dup", PasswordHash: "hash", Active: true}
	assert.ErrorIs(t, repo.CreateAccount(ctx, duplicate), ErrConflict)

	missing, err := repo.GetAccountByEmail(ctx, "missing-"+account.Email)
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := repo.UpdateAccountName(ctx, account.ID, "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, repo.UpdatePasswordHash(ctx, account.ID, "new-hash"))
	found, err = repo.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", found.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, uuid.NewString(), "x"), ErrNotFound)
	_, err = repo.UpdateAccountName(ctx, uuid.NewString(), "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func testTokenRevocation(t *testing.T, repo Repository) {
	ctx := context.Background()
	tokenID := uuid.NewString()

	revoked, err := repo.IsTokenRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.RevokeToken(ctx, tokenID, time.Now().Add(time.Hour)))
	require.NoError(t, repo.RevokeToken(ctx, tokenID, time.Now().Add(time.Hour)))

	revoked, err = repo.IsTokenRevoked(ctx, tokenID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func testCategories(t *testing.T, repo Repository) {
	ctx := context.Background()
	owner := newAccount(t, repo)
	stranger := newAccount(t, repo)

	food, err := repo.GetVisibleCategory(ctx, owner.ID, foodCategoryID)
	require.NoError(t, err)
	require.NotNil(t, food)
	assert.True(t, food.IsDefault)

	ownerID := owner.ID
	owned := &models.Category{Name: "Food", Color: "#111111", Icon: "tag", UserID: &ownerID}
	require.NoError(t, repo.CreateCategory(ctx, owned))

	// Owned rows shadow the default of the same name.
	byName, err := repo.FindVisibleCategoryByName(ctx, owner.ID, "Food")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, owned.ID, byName.ID)

	byName, err = repo.FindVisibleCategoryByName(ctx, stranger.ID, "Food")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, foodCategoryID, byName.ID)

	hidden, err := repo.GetVisibleCategory(ctx, stranger.ID, owned.ID)
	require.NoError(t, err)
	assert.Nil(t, hidden)

	duplicate := &models.Category{Name: "Food", Color: "#222222", Icon: "tag", UserID: &ownerID}
	assert.ErrorIs(t, repo.CreateCategory(ctx, duplicate), ErrConflict)

	categories, err := repo.ListVisibleCategories(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 10)

	assert.ErrorIs(t, repo.DeleteOwnedCategory(ctx, stranger.ID, owned.ID), ErrNotFound)
	assert.ErrorIs(t, repo.DeleteOwnedCategory(ctx, owner.ID, foodCategoryID), ErrNotFound)
	require.NoError(t, repo.DeleteOwnedCategory(ctx, owner.ID, owned.ID))
}

func testGoals(t *testing.T, repo Repository) {
	ctx := context.Background()
	owner := newAccount(t, repo)

	goal := &models.MonthlyGoal{
		UserID: owner.ID,
		Month:  "2024-05",
		Income: decimal.RequireFromString("3000"),
		Expenses: models.GoalExpenses{
			{CategoryID: foodCategoryID, CategoryName: "Food", ExpectedAmount: decimal.RequireFromString("400.25")},
		},
	}
	require.NoError(t, repo.UpsertGoal(ctx, goal))
	firstID := goal.ID

	replacement := &models.MonthlyGoal{
		UserID:   owner.ID,
		Month:    "2024-05",
		Income:   decimal.RequireFromString("3500"),
		Expenses: models.GoalExpenses{},
	}
	require.NoError(t, repo.UpsertGoal(ctx, replacement))
	assert.Equal(t, firstID, replacement.ID)

	stored, err := repo.GetGoal(ctx, owner.ID, "2024-05")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, decimal.RequireFromString("3500").Equal(stored.Income))
	assert.Empty(t, stored.Expenses)

	require.NoError(t, repo.UpsertGoal(ctx, &models.MonthlyGoal{UserID: owner.ID, Month: "2024-06", Income: decimal.Zero}))

	goals, err := repo.ListGoals(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, models.MonthKey("2024-06"), goals[0].Month)

	missing, err := repo.GetGoal(ctx, owner.ID, "2023-01")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testTransactions(t *testing.T, repo Repository) {
	ctx := context.Background()
	owner := newAccount(t, repo)
	stranger := newAccount(t, repo)

	add := func(day int, amount string) *models.Transaction {
		date := models.NewDate(2024, time.May, day)
		transaction := &models.Transaction{
			UserID:       owner.ID,
			CategoryID:   foodCategoryID,
			CategoryName: "Food",
			Amount:       decimal.RequireFromString(amount),
			Description:  "test",
			Date:         date,
			Month:        date.Month(),
		}
		require.NoError(t, repo.CreateTransaction(ctx, transaction))
		return transaction
	}

	first := add(3, "10")
	second := add(3, "20")
	latest := add(9, "5.55")

	newestFirst, err := repo.ListTransactions(ctx, owner.ID, models.TransactionFilter{Month: "2024-05"})
	require.NoError(t, err)
	require.Len(t, newestFirst, 3)
	assert.Equal(t, latest.ID, newestFirst[0].ID)
	assert.True(t, decimal.RequireFromString("5.55").Equal(newestFirst[0].Amount))
	assert.Equal(t, "2024-05-09", newestFirst[0].Date.String())

	oldestFirst, err := repo.ListTransactions(ctx, owner.ID, models.TransactionFilter{OldestFirst: true})
	require.NoError(t, err)
	require.Len(t, oldestFirst, 3)
	assert.Equal(t, first.ID, oldestFirst[0].ID)
	assert.Equal(t, second.ID, oldestFirst[1].ID)

	page, err := repo.ListTransactions(ctx, owner.ID, models.TransactionFilter{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)

	none, err := repo.ListTransactions(ctx, stranger.ID, models.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, none)

	foreign, err := repo.GetTransaction(ctx, stranger.ID, first.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	hijack := *first
	hijack.UserID = stranger.ID
	assert.ErrorIs(t, repo.UpdateTransaction(ctx, &hijack), ErrNotFound)

	moved := *first
	moved.Date = models.NewDate(2024, time.June, 1)
	moved.Month = moved.Date.Month()
	require.NoError(t, repo.UpdateTransaction(ctx, &moved))

	stored, err := repo.GetTransaction(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.MonthKey("2024-06"), stored.Month)
}
