package repository

import (
	"context"
	"fmt"
	"time"

	"papertalk-backend/models"

	"github.com/jackc/pgx/v5"
)

const fileColumns = `id, name, key, url, user_id, upload_status, created_at, updated_at`

// FileRepository handles database operations for files
type FileRepository struct {
	db DBTX
}

// NewFileRepository creates a new file repository
func NewFileRepository(db DBTX) *FileRepository {
	return &FileRepository{db: db}
}

// Create creates a new file record
func (r *FileRepository) Create(ctx context.Context, file *models.File) error {
	if file.UploadStatus == "" {
		file.UploadStatus = models.UploadStatusPending
	}

	query := `
		INSERT INTO files (
			id, name, key, url, user_id, upload_status
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		file.ID,
		file.Name,
		file.Key,
		file.URL,
		file.UserID,
		string(file.UploadStatus),
	).Scan(&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID without owner scoping. Only background jobs use it.
func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return scanFile(r.db.QueryRow(ctx, query, id))
}

// GetOwned retrieves a file by ID only if it belongs to userID
func (r *FileRepository) GetOwned(ctx context.Context, id, userID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND user_id = $2`
	return scanFile(r.db.QueryRow(ctx, query, id, userID))
}

// GetOwnedByKey retrieves a file by storage key only if it belongs to userID
func (r *FileRepository) GetOwnedByKey(ctx context.Context, key, userID string) (*models.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE key = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1`
	return scanFile(r.db.QueryRow(ctx, query, key, userID))
}

// ListByUserID retrieves all files for a user
func (r *FileRepository) ListByUserID(ctx context.Context, userID string) ([]*models.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	return collectFiles(rows)
}

// ListStale retrieves up to limit files that need (re)indexing, oldest first:
// PENDING and FAILED files, plus PROCESSING files not touched since processingBefore
func (r *FileRepository) ListStale(ctx context.Context, processingBefore time.Time, limit int) ([]*models.File, error) {
	query := `
		SELECT ` + fileColumns + `
		FROM files
		WHERE upload_status IN ('PENDING', 'FAILED')
			OR (upload_status = 'PROCESSING' AND updated_at < $1)
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, processingBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale files: %w", err)
	}
	return collectFiles(rows)
}

// DeleteOwned deletes a file record if it belongs to userID.
// Messages go with it through the ON DELETE CASCADE foreign key.
func (r *FileRepository) DeleteOwned(ctx context.Context, id, userID string) error {
	query := `DELETE FROM files WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus sets the upload status of a file
func (r *FileRepository) UpdateStatus(ctx context.Context, id string, status models.UploadStatus) error {
	query := `
		UPDATE files
		SET upload_status = $2, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update file status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFile(row pgx.Row) (*models.File, error) {
	file := &models.File{}
	var status string
	err := row.Scan(
		&file.ID,
		&file.Name,
		&file.Key,
		&file.URL,
		&file.UserID,
		&status,
		&file.CreatedAt,
		&file.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err)
	}
	file.UploadStatus = models.ParseUploadStatus(status)
	return file, nil
}

func collectFiles(rows pgx.Rows) ([]*models.File, error) {
	defer rows.Close()

	files := make([]*models.File, 0)
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}

	return files, rows.Err()
}
