package api_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/rongwang/budget-server/internal/api/testutils"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTransaction(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	// Test case 1: Slug creates a category
	transaction := postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
		"category_id": "food-groceries",
		"amount":      42.5,
		"description": "Weekly shop",
		"date":        "2024-05-14",
	})
	assert.Equal(t, "Food Groceries", transaction.CategoryName)
	assert.Equal(t, models.MonthKey("2024-05"), transaction.Month)
	assert.Equal(t, "2024-05-14", transaction.Date.String())
	assertAmount(t, "42.5", transaction.Amount)

	// Test case 2: Default category by id
	transaction = postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
		"category_id": foodCategoryID,
		"amount":      "10",
		"description": "Lunch",
		"date":        "2024-05-15",
	})
	assert.Equal(t, foodCategoryID, transaction.CategoryID)
	assert.Equal(t, "Food", transaction.CategoryName)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "zero amount", body: map[string]interface{}{"category_id": foodCategoryID, "amount": 0, "date": "2024-05-14"}},
		{name: "negative amount", body: map[string]interface{}{"category_id": foodCategoryID, "amount": -3, "date": "2024-05-14"}},
		{name: "bad date", body: map[string]interface{}{"category_id": foodCategoryID, "amount": 3, "date": "14/05/2024"}},
		{name: "missing date", body: map[string]interface{}{"category_id": foodCategoryID, "amount": 3}},
		{name: "missing category", body: map[string]interface{}{"amount": 3, "date": "2024-05-14"}},
		{name: "malformed body", body: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/transactions", tt.body, headers)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			envelope := testutils.DecodeResponse(t, w, nil)
			assert.False(t, envelope.Success)
		})
	}
}

func TestCreateTransactionCannotUseForeignCategory(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	_, otherToken := testCtx.CreateUser(t, "other@example.com", "otherpassword")

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/categories", models.CreateCategoryRequest{
		Name: "Private",
	}, testutils.AuthHeaders(otherToken))
	require.Equal(t, http.StatusCreated, w.Code)
	var foreign models.Category
	testutils.DecodeResponse(t, w, &foreign)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/transactions", map[string]interface{}{
		"category_id": foreign.ID,
		"amount":      5,
		"date":        "2024-05-01",
	}, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateTransaction(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	original := postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
		"category_id": foodCategoryID,
		"amount":      20,
		"description": "Dinner",
		"date":        "2024-05-31",
	})
	path := "/budget/transactions/" + original.ID

	// Test case 1: Date change moves the month
	w := testutils.PerformRequest(testCtx.Router, http.MethodPut, path, map[string]interface{}{
		"date": "2024-06-01",
	}, headers)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Transaction
	testutils.DecodeResponse(t, w, &updated)
	assert.Equal(t, models.MonthKey("2024-06"), updated.Month)
	assert.Equal(t, "Dinner", updated.Description)
	assertAmount(t, "20", updated.Amount)

	// Test case 2: Unresolvable category leaves everything unchanged
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path, map[string]interface{}{
		"category_id": "Not A Slug!",
		"amount":      99,
		"description": "changed",
	}, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	stored, err := testCtx.Repository.GetTransaction(context.Background(), testCtx.TestUserID, original.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assertAmount(t, "20", stored.Amount)
	assert.Equal(t, "Dinner", stored.Description)
	assert.Equal(t, foodCategoryID, stored.CategoryID)

	// Test case 3: Category name re-resolves
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path, map[string]interface{}{
		"category_name": "Transport",
	}, headers)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeResponse(t, w, &updated)
	assert.Equal(t, "Transport", updated.CategoryName)

	// Test case 4: Another account gets not found
	_, otherToken := testCtx.CreateUser(t, "other@example.com", "otherpassword")
	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, path, map[string]interface{}{
		"description": "mine now",
	}, testutils.AuthHeaders(otherToken))
	assert.Equal(t, http.StatusNotFound, w.Code)
	foreign := testutils.DecodeResponse(t, w, nil)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/budget/transactions/00000000-0000-4000-8000-000000000000", map[string]interface{}{
		"description": "missing",
	}, headers)
	assert.Equal(t, http.StatusNotFound, w.Code)
	missing := testutils.DecodeResponse(t, w, nil)
	assert.Equal(t, missing.Error, foreign.Error)
}

func TestListTransactions(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	for _, date := range []string{"2024-05-01", "2024-05-20", "2024-06-02"} {
		postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
			"category_id": foodCategoryID,
			"amount":      10,
			"date":        date,
		})
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/transactions?month=2024-05", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.TransactionList
	testutils.DecodeResponse(t, w, &list)
	require.Equal(t, 2, list.Count)
	assert.Equal(t, "2024-05-20", list.Transactions[0].Date.String())
	assert.Equal(t, 50, list.Limit)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/transactions?limit=1&offset=1", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeResponse(t, w, &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "2024-05-20", list.Transactions[0].Date.String())

	for _, query := range []string{"?limit=500", "?limit=abc", "?month=2024-13"} {
		w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/transactions"+query, nil, headers)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	_, otherToken := testCtx.CreateUser(t, "other@example.com", "otherpassword")
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/transactions", nil, testutils.AuthHeaders(otherToken))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeResponse(t, w, &list)
	assert.Equal(t, 0, list.Count)
}

func TestCreateTransactionAmountRange(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	for _, amount := range []string{`"0.004"`, `0.004`, `"1e50000000"`, `1e50000000`, `1000000000000`} {
		t.Run(amount, func(t *testing.T) {
			body := `{"category_id":"` + foodCategoryID + `","amount":` + amount + `,"date":"2024-05-14"}`
			w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/transactions", body, headers)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			envelope := testutils.DecodeResponse(t, w, nil)
			assert.Equal(t, "amount", envelope.Field)
			assert.Less(t, w.Body.Len(), 512)
		})
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/dashboard?month=2024-05", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.DashboardSummary
	testutils.DecodeResponse(t, w, &summary)
	assert.Equal(t, 0, summary.TransactionCount)

	transaction := postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
		"category_id": foodCategoryID,
		"amount":      "999999999999.99",
		"date":        "2024-05-14",
	})
	assertAmount(t, "999999999999.99", transaction.Amount)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPut, "/budget/transactions/"+transaction.ID,
		`{"amount":"1e50000000"}`, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTransactionLongCategoryName(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/transactions", map[string]interface{}{
		"category_name": strings.Repeat("n", 101),
		"amount":        5,
		"date":          "2024-05-14",
	}, testutils.AuthHeaders(testCtx.TestUserJWT))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := testutils.DecodeResponse(t, w, nil)
	assert.Equal(t, "category_name", envelope.Field)
}
