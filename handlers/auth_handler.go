package handlers

import (
	"net/http"

	"papertalk-backend/auth"
	"papertalk-backend/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles the post-login callback
type AuthHandler struct {
	log   *logger.Logger
	users UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(log *logger.Logger, users UserService) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), users: users}
}

// Callback handles GET /api/auth/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	res, err := h.users.AuthCallback(c.Request.Context(), auth.FromContext(c.Request.Context()))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
