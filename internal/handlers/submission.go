package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/services"
)

type SubmissionHandler struct {
	log        *logger.Logger
	completion services.CompletionService
}

func NewSubmissionHandler(log *logger.Logger, completion services.CompletionService) *SubmissionHandler {
	return &SubmissionHandler{
		log:        log.With("handler", "SubmissionHandler"),
		completion: completion,
	}
}

// Complete runs the completion workflow for a submission that was just
// marked complete. The caller is the LMS frontend's backend, which already
// persisted the submission.
func (h *SubmissionHandler) Complete(c *gin.Context) {
	submissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_submission_id", err)
		return
	}
	if err := h.completion.ProcessMarkedAsComplete(c.Request.Context(), submissionID); err != nil {
		h.log.Error("Completion workflow failed", "submission_id", submissionID, "error", err)
		RespondAppError(c, "completion_failed", err)
		return
	}
	RespondOK(c, gin.H{"submission_id": submissionID, "processed": true})
}
