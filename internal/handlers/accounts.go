package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/services"
)

type AccountHandler struct {
	log      *logger.Logger
	accounts services.AccountService
}

func NewAccountHandler(log *logger.Logger, accounts services.AccountService) *AccountHandler {
	return &AccountHandler{
		log:      log.With("handler", "AccountHandler"),
		accounts: accounts,
	}
}

type provisionRequest struct {
	SchoolID  uuid.UUID  `json:"school_id" binding:"required"`
	StartupID *uuid.UUID `json:"startup_id"`
	Email     string     `json:"email" binding:"required"`
	FirstName string     `json:"first_name" binding:"required"`
	LastName  string     `json:"last_name" binding:"required"`
	Referrer  string     `json:"referrer"`
}

func (h *AccountHandler) Provision(c *gin.Context) {
	var req provisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	user, err := h.accounts.Provision(c.Request.Context(), nil, services.ProvisionParams{
		SchoolID:  req.SchoolID,
		StartupID: req.StartupID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Referrer:  req.Referrer,
	})
	if err != nil {
		h.log.Error("Provision failed", "email", req.Email, "error", err)
		RespondAppError(c, "provision_failed", err)
		return
	}
	RespondOK(c, gin.H{"user": user})
}

type signOutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AccountHandler) SignOut(c *gin.Context) {
	var req signOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.accounts.SignOut(c.Request.Context(), req.RefreshToken); err != nil {
		h.log.Error("SignOut failed", "error", err)
		RespondAppError(c, "sign_out_failed", err)
		return
	}
	RespondOK(c, gin.H{"signed_out": true})
}
