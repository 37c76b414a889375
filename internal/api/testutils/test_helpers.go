package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/budget-server/internal/api"
	"github.com/rongwang/budget-server/internal/auth"
	"github.com/rongwang/budget-server/internal/models"
	"github.com/rongwang/budget-server/internal/repository"
	"github.com/rongwang/budget-server/internal/service"
	"github.com/rongwang/budget-server/internal/utils"
	"github.com/stretchr/testify/require"
)

const (
	TestUserEmail    = "testuser@example.com"
	TestUserPassword = "testpassword"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router      *gin.Engine
	Repository  *repository.MemoryRepository
	Service     service.Service
	Budget      service.BudgetService
	Tokens      *auth.TokenManager
	TestUserID  string
	TestUserJWT string
}

// SetupTestContext builds the full router over an in-memory store and signs
// in a test user.
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()

	logger := utils.NewDiscardLogger()
	repo := repository.NewMemoryRepository()
	tokens := auth.NewTokenManager("test-secret-key", time.Hour)

	svc := service.NewDefaultService(repo, tokens, logger)
	budget := service.NewBudgetService(repo, logger)
	handler := api.NewHandler(svc, budget, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))
	handler.SetupRoutes(router)

	testCtx := &TestContext{
		Router:     router,
		Repository: repo,
		Service:    svc,
		Budget:     budget,
		Tokens:     tokens,
	}
	testCtx.TestUserID, testCtx.TestUserJWT = testCtx.CreateUser(t, TestUserEmail, TestUserPassword)

	return testCtx
}

// CreateUser signs up an account and returns its id and a fresh token
func (tc *TestContext) CreateUser(t *testing.T, email, password string) (string, string) {
	t.Helper()

	account, err := tc.Service.SignUp(context.Background(), models.SignUpRequest{
		Email:    email,
		Password: password,
		Name:     "Test User",
	})
	require.NoError(t, err, "Failed to create test user")

	resp, err := tc.Service.Login(context.Background(), models.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.NoError(t, err, "Failed to log in test user")

	return account.ID, resp.Token
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// Envelope is the decoded response body with data left raw
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
}

// DecodeResponse parses the envelope and, when out is non-nil, its data
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Envelope {
	t.Helper()

	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), "response is not an envelope: %s", w.Body.String())

	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out), "unexpected data: %s", string(envelope.Data))
	}

	return envelope
}
