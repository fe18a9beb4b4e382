package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/repos"
)

// StatementHandler exposes the statement outbox for operators, mainly to
// inspect stuck or dead rows.
type StatementHandler struct {
	log  *logger.Logger
	repo repos.StatementOutboxRepo
}

func NewStatementHandler(log *logger.Logger, repo repos.StatementOutboxRepo) *StatementHandler {
	return &StatementHandler{
		log:  log.With("handler", "StatementHandler"),
		repo: repo,
	}
}

func (h *StatementHandler) ListRecent(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = parsed
	}
	rows, err := h.repo.ListRecent(c.Request.Context(), nil, limit)
	if err != nil {
		h.log.Error("ListRecent failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "list_statements_failed", err)
		return
	}
	RespondOK(c, gin.H{"statements": rows})
}
