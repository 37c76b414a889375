package api_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/rongwang/budget-server/internal/api/testutils"
	"github.com/rongwang/budget-server/internal/auth"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const foodCategoryID = "8f14e45f-ceea-467a-9b36-1f0b5a7c0001"

// foreignToken is well formed but signed with a key the server does not know
func foreignToken(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := auth.NewTokenManager("some-other-secret", time.Hour).Issue(userID)
	require.NoError(t, err)
	return token
}

func postTransaction(t *testing.T, testCtx *testutils.TestContext, token string, body map[string]interface{}) models.Transaction {
	t.Helper()

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/budget/transactions", body, testutils.AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var transaction models.Transaction
	testutils.DecodeResponse(t, w, &transaction)
	return transaction
}

func assertAmount(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}
