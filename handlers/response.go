package handlers

import (
	"errors"
	"net/http"
	"strings"

	"papertalk-backend/logger"
	"papertalk-backend/service"

	"github.com/gin-gonic/gin"
)

// Error codes of the JSON error body
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeNotFound      = "NOT_FOUND"
	CodeBadRequest    = "BAD_REQUEST"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// writeError maps service errors to HTTP responses. Only invalid-argument
// messages reach the client; internal errors are logged and masked.
func writeError(c *gin.Context, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, "not found")
	case errors.Is(err, service.ErrInvalidArgument):
		respondError(c, http.StatusBadRequest, CodeBadRequest, clientMessage(err))
	default:
		log.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		respondError(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
	}
}

// clientMessage strips the sentinel prefix from "invalid argument: limit must be ..."
func clientMessage(err error) string {
	msg := err.Error()
	prefix := service.ErrInvalidArgument.Error() + ": "
	if strings.HasPrefix(msg, prefix) {
		return strings.TrimPrefix(msg, prefix)
	}
	return msg
}
