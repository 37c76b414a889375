package api_test

import (
	"net/http"
	"testing"

	"github.com/rongwang/budget-server/internal/api/testutils"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/goals", map[string]interface{}{
		"month":  "2024-05",
		"income": 1000,
		"expenses": []map[string]interface{}{
			{"category_name": "Food", "expected_amount": 100},
		},
	}, headers)
	require.Equal(t, http.StatusOK, w.Code)

	postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
		"category_name": "Food", "amount": 200, "date": "2024-05-03",
	})
	postTransaction(t, testCtx, testCtx.TestUserJWT, map[string]interface{}{
		"category_name": "Transport", "amount": 50, "date": "2024-05-04",
	})

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/dashboard?month=2024-05", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]interface{}
	testutils.DecodeResponse(t, w, &raw)
	for _, key := range []string{"totalIncome", "totalExpenses", "actualSavings", "totalExpectedExpenses",
		"expectedSavings", "categoryTotals", "topCategories", "monthlyProgress", "transactionCount"} {
		assert.Contains(t, raw, key)
	}

	var summary models.DashboardSummary
	testutils.DecodeResponse(t, w, &summary)
	assert.Equal(t, models.MonthKey("2024-05"), summary.Month)
	assertAmount(t, "1000", summary.TotalIncome)
	assertAmount(t, "250", summary.TotalExpenses)
	assertAmount(t, "750", summary.ActualSavings)
	assertAmount(t, "900", summary.ExpectedSavings)
	assertAmount(t, "100", summary.MonthlyProgress)
	assert.Equal(t, 2, summary.TransactionCount)
	require.Len(t, summary.TopCategories, 2)
	assert.Equal(t, "Food", summary.TopCategories[0].CategoryName)
	assertAmount(t, "80", summary.TopCategories[0].Percentage)
}

func TestDashboardEmptyMonth(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/dashboard?month=2023-01", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.DashboardSummary
	testutils.DecodeResponse(t, w, &summary)
	assertAmount(t, "0", summary.TotalIncome)
	assertAmount(t, "0", summary.MonthlyProgress)
	assert.NotNil(t, summary.TopCategories)
	assert.Empty(t, summary.TopCategories)
	assert.Equal(t, 0, summary.TransactionCount)
}

func TestDashboardDefaultsToCurrentMonth(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/dashboard", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	require.Equal(t, http.StatusOK, w.Code)

	var summary models.DashboardSummary
	testutils.DecodeResponse(t, w, &summary)
	assert.True(t, summary.Month.IsValid())

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/dashboard?month=24-05", nil, testutils.AuthHeaders(testCtx.TestUserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	testCtx.Repository.AddHistory(models.MonthlyHistory{
		UserID:       testCtx.TestUserID,
		Month:        "2024-04",
		Goal:         models.JSONDocument(`{"income":1000}`),
		Transactions: models.JSONDocument(`[]`),
		Summary:      models.JSONDocument(`{"totalExpenses":0}`),
	})

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/history", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]interface{}
	testutils.DecodeResponse(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, "2024-04", history[0]["month"])
	assert.Equal(t, map[string]interface{}{"income": float64(1000)}, history[0]["goal"])

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/history?month=2024-03", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeResponse(t, w, &history)
	assert.Empty(t, history)

	_, otherToken := testCtx.CreateUser(t, "other@example.com", "otherpassword")
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/budget/history", nil, testutils.AuthHeaders(otherToken))
	require.Equal(t, http.StatusOK, w.Code)
	testutils.DecodeResponse(t, w, &history)
	assert.Empty(t, history)
}
