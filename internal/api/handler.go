package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/budget-server/internal/service"
	"github.com/sirupsen/logrus"
)

// Handler serves the HTTP API
type Handler struct {
	service service.Service
	budget  service.BudgetService
	logger  *logrus.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc service.Service, budget service.BudgetService, logger *logrus.Logger) *Handler {
	registerValidators()
	return &Handler{
		service: svc,
		budget:  budget,
		logger:  logger,
	}
}

// SetupRoutes registers every endpoint on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)

	authRequired := AuthMiddleware(h.service, h.logger)

	auth := router.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
		auth.GET("/profile", authRequired, h.GetProfile)
		auth.POST("/change-password", authRequired, h.ChangePassword)
		auth.POST("/logout", authRequired, h.Logout)
	}

	user := router.Group("/user", authRequired)
	{
		user.GET("/profile", h.GetProfile)
		user.PUT("/profile", h.UpdateProfile)
	}

	budget := router.Group("/budget", authRequired)
	{
		budget.GET("/dashboard", h.GetDashboard)

		budget.GET("/goals", h.GetGoals)
		budget.POST("/goals", h.UpsertGoal)

		budget.GET("/transactions", h.ListTransactions)
		budget.POST("/transactions", h.CreateTransaction)
		budget.PUT("/transactions/:id", h.UpdateTransaction)

		budget.GET("/history", h.ListHistory)

		budget.GET("/categories", h.ListCategories)
		budget.POST("/categories", h.CreateCategory)
		budget.DELETE("/categories/:id", h.DeleteCategory)
	}
}

// Health reports liveness without touching the store
func (h *Handler) Health(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}
