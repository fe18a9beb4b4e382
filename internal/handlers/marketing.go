package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillbase/skillbase-backend/internal/clients/mailchimp"
	"github.com/skillbase/skillbase-backend/internal/logger"
)

type MarketingHandler struct {
	log       *logger.Logger
	marketing mailchimp.Client
}

func NewMarketingHandler(log *logger.Logger, marketing mailchimp.Client) *MarketingHandler {
	return &MarketingHandler{
		log:       log.With("handler", "MarketingHandler"),
		marketing: marketing,
	}
}

type addContactRequest struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

func (h *MarketingHandler) AddContact(c *gin.Context) {
	var req addContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	contact, err := h.marketing.AddContact(c.Request.Context(), req.Email, req.FullName)
	if err != nil {
		h.log.Error("AddContact failed", "email", req.Email, "error", err)
		RespondAppError(c, "contact_creation_failed", err)
		return
	}
	RespondOK(c, gin.H{"contact": contact})
}

func (h *MarketingHandler) GetContact(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	contact, err := h.marketing.Contact(c.Request.Context(), email)
	if err != nil {
		h.log.Error("Contact lookup failed", "email", email, "error", err)
		RespondAppError(c, "contact_lookup_failed", err)
		return
	}
	RespondOK(c, gin.H{"contact": contact})
}
