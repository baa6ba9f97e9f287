package auth

import (
	"net/http"
	"strings"

	"papertalk-backend/logger"

	"github.com/gin-gonic/gin"
)

// Middleware puts the bearer token's identity on the request context
type Middleware struct {
	log    *logger.Logger
	tokens *TokenManager
}

func NewMiddleware(log *logger.Logger, tokens *TokenManager) *Middleware {
	return &Middleware{log: log.With("middleware", "AuthMiddleware"), tokens: tokens}
}

// RequireAuth rejects requests without a valid bearer token
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.tokens.Parse(bearerToken(c))
		if err != nil {
			m.log.Debug("rejected request", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{"code": "UNAUTHORIZED", "message": "missing or invalid token"},
			})
			return
		}
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and never aborts.
// Handlers behind it decide what an anonymous caller gets.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := m.tokens.Parse(bearerToken(c)); err == nil {
			c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
