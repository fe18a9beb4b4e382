package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillbase/skillbase-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondAppError maps the error taxonomy onto HTTP statuses. Upstream
// failures surface as 502 so callers can tell our bugs from theirs.
func RespondAppError(c *gin.Context, code string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, code, err)
	case errors.Is(err, apperr.ErrInvalidArgument), errors.Is(err, apperr.ErrInvalidDuration):
		RespondError(c, http.StatusBadRequest, code, err)
	case errors.Is(err, apperr.ErrUpstreamUnavailable),
		errors.Is(err, apperr.ErrTokenFetchFailed),
		errors.Is(err, apperr.ErrSignOutFailed),
		errors.Is(err, apperr.ErrSearchFailed),
		errors.Is(err, apperr.ErrUserCreationFailed),
		errors.Is(err, apperr.ErrContactLookupFailed),
		errors.Is(err, apperr.ErrContactCreationFailed):
		RespondError(c, http.StatusBadGateway, code, err)
	default:
		RespondError(c, http.StatusInternalServerError, code, err)
	}
}
