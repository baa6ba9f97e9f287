package handlers

import (
	"context"

	"papertalk-backend/auth"
	"papertalk-backend/models"
	"papertalk-backend/service"
)

// UserService is the part of service.UserService the handlers use
type UserService interface {
	AuthCallback(ctx context.Context, id auth.Identity) (*service.AuthCallbackResult, error)
}

// FileService is the part of service.FileService the handlers use
type FileService interface {
	GetUserFiles(ctx context.Context, id auth.Identity) ([]*models.File, error)
	GetFile(ctx context.Context, id auth.Identity, key string) (*models.File, error)
	GetFileUploadStatus(ctx context.Context, id auth.Identity, fileID string) (models.UploadStatus, error)
	DeleteFile(ctx context.Context, id auth.Identity, fileID string) (*models.File, error)
	UploadFile(ctx context.Context, id auth.Identity, req service.UploadFileRequest) (*models.File, error)
}

// MessageService is the part of service.MessageService the handlers use
type MessageService interface {
	GetFileMessages(ctx context.Context, id auth.Identity, fileID string, q service.MessagesQuery) (*models.MessagePage, error)
}
