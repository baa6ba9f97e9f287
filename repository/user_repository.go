package repository

import (
	"context"
	"fmt"

	"papertalk-backend/models"
)

// UserRepository handles database operations for users
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, created_at
		FROM users
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	return user, nil
}

// CreateIfNotExists inserts the user unless a row with the same ID exists.
// It reports whether this call created the row.
func (r *UserRepository) CreateIfNotExists(ctx context.Context, user *models.User) (bool, error) {
	query := `
		INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, user.ID, user.Email)
	if err != nil {
		return false, fmt.Errorf("failed to insert user: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}
