package service

import (
	"context"
	"time"

	"papertalk-backend/models"
)

// UserStore is the user table as seen by the services
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	CreateIfNotExists(ctx context.Context, user *models.User) (bool, error)
}

// FileStore is the file table as seen by the services.
// Lookups return repository.ErrNotFound when no row matches.
type FileStore interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	GetOwned(ctx context.Context, id, userID string) (*models.File, error)
	GetOwnedByKey(ctx context.Context, key, userID string) (*models.File, error)
	ListByUserID(ctx context.Context, userID string) ([]*models.File, error)
	// ListStale returns PENDING and FAILED files plus PROCESSING files last updated before processingBefore
	ListStale(ctx context.Context, processingBefore time.Time, limit int) ([]*models.File, error)
	DeleteOwned(ctx context.Context, id, userID string) error
	UpdateStatus(ctx context.Context, id string, status models.UploadStatus) error
}

// MessageStore reads chat history
type MessageStore interface {
	ListPage(ctx context.Context, fileID string, cursor *string, take int) ([]models.Message, error)
}

// Ingestor starts indexing of an uploaded file without blocking the caller
type Ingestor interface {
	Start(fileID string)
}
