package repository

import (
	"context"
	"fmt"

	"papertalk-backend/models"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db DBTX
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message. Messages are immutable after this.
func (r *MessageRepository) Create(ctx context.Context, userID string, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, text, is_user_message, user_id, file_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		msg.ID,
		msg.Text,
		msg.IsUserMessage,
		userID,
		msg.FileID,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListPage returns up to take messages of fileID ordered by (created_at, id) descending.
// With a cursor, only rows strictly after the cursor row in that order are returned;
// a cursor that does not name a message of fileID yields no rows.
func (r *MessageRepository) ListPage(ctx context.Context, fileID string, cursor *string, take int) ([]models.Message, error) {
	var (
		query string
		args  []any
	)

	if cursor == nil {
		query = `
			SELECT id, file_id, is_user_message, text, created_at
			FROM messages
			WHERE file_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`
		args = []any{fileID, take}
	} else {
		query = `
			SELECT m.id, m.file_id, m.is_user_message, m.text, m.created_at
			FROM messages m
			JOIN messages c ON c.id = $2 AND c.file_id = $1
			WHERE m.file_id = $1
				AND (m.created_at, m.id) < (c.created_at, c.id)
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT $3`
		args = []any{fileID, *cursor, take}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0, take)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FileID, &m.IsUserMessage, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}
