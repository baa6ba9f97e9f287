package service

import (
	"context"
	"fmt"
	"strings"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/models"
)

// MessagesQuery holds the optional paging inputs of GetFileMessages
type MessagesQuery struct {
	Cursor *string
	Limit  *int
}

// MessageService reads chat history of a file
type MessageService struct {
	log          *logger.Logger
	files        FileStore
	messages     MessageStore
	defaultLimit int
	maxLimit     int
}

func NewMessageService(log *logger.Logger, files FileStore, messages MessageStore, defaultLimit, maxLimit int) *MessageService {
	return &MessageService{
		log:          log.With("service", "MessageService"),
		files:        files,
		messages:     messages,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

// GetFileMessages returns one page of the file's messages, newest first.
// NextCursor is the ID of the last message returned and is only set when
// older messages remain.
func (s *MessageService) GetFileMessages(ctx context.Context, id auth.Identity, fileID string, q MessagesQuery) (*models.MessagePage, error) {
	if id.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: fileId is required", ErrInvalidArgument)
	}

	limit := s.defaultLimit
	if q.Limit != nil {
		if *q.Limit < 1 || *q.Limit > s.maxLimit {
			return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidArgument, s.maxLimit)
		}
		limit = *q.Limit
	}

	var cursor *string
	if q.Cursor != nil && *q.Cursor != "" {
		cursor = q.Cursor
	}

	if _, err := s.files.GetOwned(ctx, fileID, id.UserID); err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	// One extra row tells whether another page exists
	rows, err := s.messages.ListPage(ctx, fileID, cursor, limit+1)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	page := &models.MessagePage{Messages: rows}
	if len(rows) > limit {
		page.Messages = rows[:limit]
		next := page.Messages[limit-1].ID
		page.NextCursor = &next
	}
	if page.Messages == nil {
		page.Messages = []models.Message{}
	}
	return page, nil
}
