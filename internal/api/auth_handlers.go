package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rongwang/budget-server/internal/apperr"
	"github.com/rongwang/budget-server/internal/models"
)

func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	account, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusCreated, account)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	if err := h.service.Logout(c.Request.Context(), identity); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, "logged out")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), identity.UserID, req); err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondMessage(c, "password updated")
}

func (h *Handler) GetProfile(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	account, err := h.service.GetProfile(c.Request.Context(), identity.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, account)
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	identity, ok := h.requireIdentity(c)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindingError(err))
		return
	}

	account, err := h.service.UpdateProfile(c.Request.Context(), identity.UserID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondOK(c, http.StatusOK, account)
}

// requireIdentity fetches the caller, answering 401 if the route was
// registered without AuthMiddleware.
func (h *Handler) requireIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := currentIdentity(c)
	if !ok {
		respondError(c, h.logger, apperr.Unauthorized("authentication required"))
		return models.Identity{}, false
	}
	return identity, true
}
