package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkshare/linkshare/backend/session-store/internal/sessions"
	"github.com/linkshare/linkshare/backend/session-store/internal/tokens"
	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

// BaseResponse is the envelope every endpoint answers with.
type BaseResponse struct {
	StatusMessage string      `json:"status_message"`
	Data          interface{} `json:"data"`
	Error         string      `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, BaseResponse{StatusMessage: http.StatusText(status), Data: data})
}

func fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, BaseResponse{StatusMessage: http.StatusText(status), Error: err.Error()})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, sessions.ErrUnauthorized), errors.Is(err, sessions.ErrExpired), errors.Is(err, sessions.ErrNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, sessions.ErrInvalidUser):
		return http.StatusBadRequest
	case errors.Is(err, sessions.ErrDuplicateToken):
		return http.StatusConflict
	case errors.Is(err, tokens.ErrNoSecret):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
