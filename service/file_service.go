package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/models"
	"papertalk-backend/queue"
	"papertalk-backend/storage"
	"papertalk-backend/vectorindex"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("papertalk-backend/service")

// externalDeleteTimeout bounds the storage and index deletes that follow a row delete
const externalDeleteTimeout = 30 * time.Second

// FileService handles business logic for uploaded files
type FileService struct {
	log      *logger.Logger
	files    FileStore
	storage  storage.Storage
	index    vectorindex.Index
	cleanup  queue.CleanupQueue
	ingestor Ingestor
	maxBytes int64
	now      func() time.Time
}

// FileServiceOption is a functional option for FileService
type FileServiceOption func(*FileService)

// FileWithStore sets the file store
func FileWithStore(files FileStore) FileServiceOption {
	return func(s *FileService) {
		s.files = files
	}
}

// FileWithStorage sets the object storage backend
func FileWithStorage(st storage.Storage) FileServiceOption {
	return func(s *FileService) {
		s.storage = st
	}
}

// FileWithIndex sets the vector index
func FileWithIndex(idx vectorindex.Index) FileServiceOption {
	return func(s *FileService) {
		s.index = idx
	}
}

// FileWithCleanupQueue sets the queue that receives leftovers of partial deletes
func FileWithCleanupQueue(q queue.CleanupQueue) FileServiceOption {
	return func(s *FileService) {
		s.cleanup = q
	}
}

// FileWithIngestor sets the background ingestion starter used after uploads
func FileWithIngestor(i Ingestor) FileServiceOption {
	return func(s *FileService) {
		s.ingestor = i
	}
}

// FileWithMaxUploadBytes sets the upload size limit
func FileWithMaxUploadBytes(n int64) FileServiceOption {
	return func(s *FileService) {
		s.maxBytes = n
	}
}

// NewFileService creates a new file service. Without FileWithCleanupQueue,
// delete leftovers go to an in-process queue.
func NewFileService(log *logger.Logger, opts ...FileServiceOption) *FileService {
	s := &FileService{
		log:      log.With("service", "FileService"),
		cleanup:  queue.NewMemoryQueue(),
		maxBytes: 4 * 1024 * 1024,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUserFiles returns every file owned by the caller, newest first
func (s *FileService) GetUserFiles(ctx context.Context, id auth.Identity) ([]*models.File, error) {
	if id.UserID == "" {
		return nil, ErrUnauthenticated
	}

	files, err := s.files.ListByUserID(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if files == nil {
		files = []*models.File{}
	}
	return files, nil
}

// GetFile returns the caller's file stored under key
func (s *FileService) GetFile(ctx context.Context, id auth.Identity, key string) (*models.File, error) {
	if id.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("%w: key is required", ErrInvalidArgument)
	}

	file, err := s.files.GetOwnedByKey(ctx, key, id.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load file: %w", err)
	}
	return file, nil
}

// GetFileUploadStatus reports the ingestion status of the caller's file.
// A file the caller cannot see reports PENDING, the same as one not yet created.
func (s *FileService) GetFileUploadStatus(ctx context.Context, id auth.Identity, fileID string) (models.UploadStatus, error) {
	if id.UserID == "" {
		return "", ErrUnauthenticated
	}

	file, err := s.files.GetOwned(ctx, fileID, id.UserID)
	if err != nil {
		if isNotFound(err) {
			return models.UploadStatusPending, nil
		}
		return "", fmt.Errorf("failed to load file: %w", err)
	}
	return file.UploadStatus, nil
}

// DeleteFile removes the caller's file row, then its stored object and vector
// namespace. The row goes first so a partial failure never leaves a visible
// file without its data. Storage and index leftovers are queued for cleanup.
func (s *FileService) DeleteFile(ctx context.Context, id auth.Identity, fileID string) (*models.File, error) {
	if id.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}

	ctx, span := tracer.Start(ctx, "FileService.DeleteFile")
	span.SetAttributes(attribute.String("file.id", fileID))
	defer span.End()

	file, err := s.files.GetOwned(ctx, fileID, id.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "load file")
		return nil, fmt.Errorf("failed to load file: %w", err)
	}

	if err := s.files.DeleteOwned(ctx, file.ID, id.UserID); err != nil {
		if isNotFound(err) {
			// Lost a race with a concurrent delete
			return nil, ErrNotFound
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete row")
		return nil, fmt.Errorf("failed to delete file: %w", err)
	}

	task := s.deleteExternal(ctx, file)
	if task.Pending() {
		span.AddEvent("cleanup queued")
		if err := s.cleanup.Enqueue(context.WithoutCancel(ctx), task); err != nil {
			s.log.Error("failed to queue cleanup", "file_id", file.ID, "key", file.Key, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "enqueue cleanup")
			return nil, fmt.Errorf("failed to queue cleanup: %w", err)
		}
		s.log.Warn("file deleted with leftovers queued", "file_id", file.ID, "storage", task.Storage, "index", task.Index)
	} else {
		s.log.Info("file deleted", "file_id", file.ID)
	}

	return file, nil
}

// deleteExternal removes the stored object and the vector namespace in parallel.
// The returned task names whichever side failed. An unset backend has nothing to remove.
func (s *FileService) deleteExternal(ctx context.Context, file *models.File) queue.CleanupTask {
	// The row is already gone; finish even if the caller hangs up
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), externalDeleteTimeout)
	defer cancel()

	var (
		g          errgroup.Group
		storageErr error
		indexErr   error
	)
	if s.storage != nil {
		g.Go(func() error {
			storageErr = s.storage.Delete(ctx, file.Key)
			return storageErr
		})
	}
	if s.index != nil {
		g.Go(func() error {
			indexErr = s.index.DeleteNamespace(ctx, file.ID)
			return indexErr
		})
	}
	_ = g.Wait()

	task := queue.CleanupTask{
		FileID:     file.ID,
		Key:        file.Key,
		Storage:    storageErr != nil,
		Index:      indexErr != nil,
		EnqueuedAt: s.now().UTC(),
	}
	if err := errors.Join(storageErr, indexErr); err != nil {
		task.LastError = err.Error()
		s.log.Warn("external delete failed", "file_id", file.ID, "error", err)
	}
	return task
}

// UploadFileRequest carries one uploaded document
type UploadFileRequest struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

var textExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".md":       true,
	".markdown": true,
	".csv":      true,
}

// UploadFile stores a document, records it as PENDING and starts ingestion
func (s *FileService) UploadFile(ctx context.Context, id auth.Identity, req UploadFileRequest) (*models.File, error) {
	if id.UserID == "" {
		return nil, ErrUnauthenticated
	}
	name := filepath.Base(strings.TrimSpace(req.Filename))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: file name is required", ErrInvalidArgument)
	}
	if req.Size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidArgument)
	}
	if req.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidArgument, s.maxBytes)
	}
	if !isTextDocument(name, req.ContentType) {
		return nil, fmt.Errorf("%w: only text documents are supported", ErrInvalidArgument)
	}

	fileID := uuid.New()
	key := storage.GenerateKey(fileID, name)

	// One extra byte detects bodies larger than the declared size
	body := io.LimitReader(req.Body, s.maxBytes+1)
	counted := &countingReader{r: body}
	if err := s.storage.Upload(ctx, key, counted); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}
	if counted.n > s.maxBytes {
		s.removeObject(ctx, key)
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidArgument, s.maxBytes)
	}

	file := &models.File{
		ID:           fileID.String(),
		Name:         name,
		Key:          key,
		UserID:       id.UserID,
		UploadStatus: models.UploadStatusPending,
	}
	if err := s.files.Create(ctx, file); err != nil {
		s.removeObject(ctx, key)
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	s.log.Info("file uploaded", "file_id", file.ID, "user_id", id.UserID, "bytes", counted.n)
	if s.ingestor != nil {
		s.ingestor.Start(file.ID)
	}
	return file, nil
}

func (s *FileService) removeObject(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Error("failed to remove orphaned object", "key", key, "error", err)
	}
}

func isTextDocument(name, contentType string) bool {
	if ct := strings.TrimSpace(contentType); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil && strings.HasPrefix(mediaType, "text/") {
			return true
		}
		if err == nil && mediaType != "application/octet-stream" {
			return false
		}
	}
	return textExtensions[strings.ToLower(filepath.Ext(name))]
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
