package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/budget-server/internal/models"
)

// Dashboard handlers
func (h *Handler) GetDashboard(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var query models.MonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	summary, err := h.budget.GetDashboard(c.Request.Context(), identity.UserID, query.Month)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, summary)
}

// Goal handlers

// GetGoals returns the goal of ?month, or every goal when no month is given
func (h *Handler) GetGoals(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var query models.MonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	if query.Month != "" {
		goal, err := h.budget.GetGoal(c.Request.Context(), identity.UserID, query.Month)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		respondOK(c, http.StatusOK, goal)
		return
	}

	goals, err := h.budget.ListGoals(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, goals)
}

func (h *Handler) UpsertGoal(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req models.UpsertGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	goal, err := h.budget.UpsertGoal(c.Request.Context(), identity.UserID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, goal)
}

// Transaction handlers
func (h *Handler) ListTransactions(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var query models.TransactionQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	list, err := h.budget.ListTransactions(c.Request.Context(), identity.UserID, query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, list)
}

func (h *Handler) CreateTransaction(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	transaction, err := h.budget.CreateTransaction(c.Request.Context(), identity.UserID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, transaction)
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req models.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	transaction, err := h.budget.UpdateTransaction(c.Request.Context(), identity.UserID, c.Param("id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, transaction)
}

// History handlers
func (h *Handler) ListHistory(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var query models.MonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	history, err := h.budget.ListHistory(c.Request.Context(), identity.UserID, query.Month)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, history)
}

// Category handlers
func (h *Handler) ListCategories(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	categories, err := h.budget.ListCategories(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, categories)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	category, err := h.budget.CreateCategory(c.Request.Context(), identity.UserID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	if err := h.budget.DeleteCategory(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, "category deleted")
}
