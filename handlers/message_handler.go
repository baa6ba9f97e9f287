package handlers

import (
	"net/http"
	"strconv"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/service"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves chat history
type MessageHandler struct {
	log      *logger.Logger
	messages MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(log *logger.Logger, messages MessageService) *MessageHandler {
	return &MessageHandler{log: log.With("handler", "MessageHandler"), messages: messages}
}

// ListMessages handles GET /api/files/:id/messages?cursor=&limit=
func (h *MessageHandler) ListMessages(c *gin.Context) {
	var q service.MessagesQuery

	if cursor, ok := c.GetQuery("cursor"); ok && cursor != "" {
		q.Cursor = &cursor
	}
	if raw, ok := c.GetQuery("limit"); ok && raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, CodeBadRequest, "limit must be an integer")
			return
		}
		q.Limit = &limit
	}

	page, err := h.messages.GetFileMessages(c.Request.Context(), auth.FromContext(c.Request.Context()), c.Param("id"), q)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
