package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"papertalk-backend/logger"
	"papertalk-backend/models"
	"papertalk-backend/storage"
	"papertalk-backend/vectorindex"
)

var (
	ErrEmptyDocument   = errors.New("document has no text")
	ErrEmbeddingFailed = errors.New("failed to generate embedding")
)

const defaultJobTimeout = 5 * time.Minute

// Embedder turns chunks of text into vectors, one per input, in order
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexService moves uploaded files through PENDING, PROCESSING and SUCCESS or FAILED
// by chunking, embedding and upserting their text into the vector index
type IndexService struct {
	log          *logger.Logger
	files        FileStore
	storage      storage.Storage
	index        vectorindex.Index
	embedder     Embedder
	chunkSize    int
	chunkOverlap int
	jobTimeout   time.Duration
	now          func() time.Time

	baseCtx context.Context
	wg      sync.WaitGroup
}

// IndexServiceOption is a functional option for IndexService
type IndexServiceOption func(*IndexService)

// IndexWithStore sets the file store
func IndexWithStore(files FileStore) IndexServiceOption {
	return func(s *IndexService) {
		s.files = files
	}
}

// IndexWithStorage sets the object storage backend documents are read from
func IndexWithStorage(st storage.Storage) IndexServiceOption {
	return func(s *IndexService) {
		s.storage = st
	}
}

// IndexWithIndex sets the vector index
func IndexWithIndex(idx vectorindex.Index) IndexServiceOption {
	return func(s *IndexService) {
		s.index = idx
	}
}

// IndexWithEmbedder sets the embedding client
func IndexWithEmbedder(e Embedder) IndexServiceOption {
	return func(s *IndexService) {
		s.embedder = e
	}
}

// IndexWithChunking sets chunk size and overlap in characters
func IndexWithChunking(size, overlap int) IndexServiceOption {
	return func(s *IndexService) {
		s.chunkSize = size
		s.chunkOverlap = overlap
	}
}

// NewIndexService creates an ingestion service. Jobs started with Start run
// under baseCtx and stop when it is cancelled.
func NewIndexService(baseCtx context.Context, log *logger.Logger, opts ...IndexServiceOption) *IndexService {
	s := &IndexService{
		log:          log.With("service", "IndexService"),
		chunkSize:    1000,
		chunkOverlap: 200,
		jobTimeout:   defaultJobTimeout,
		now:          time.Now,
		baseCtx:      baseCtx,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start processes fileID in the background
func (s *IndexService) Start(fileID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.baseCtx, s.jobTimeout)
		defer cancel()

		if err := s.ProcessFile(ctx, fileID); err != nil {
			s.log.Error("ingestion failed", "file_id", fileID, "error", err)
		}
	}()
}

// Wait blocks until every job started with Start has returned
func (s *IndexService) Wait() {
	s.wg.Wait()
}

// ProcessFile indexes one file and records the outcome in its upload status
func (s *IndexService) ProcessFile(ctx context.Context, fileID string) error {
	file, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}

	if err := s.files.UpdateStatus(ctx, file.ID, models.UploadStatusProcessing); err != nil {
		return fmt.Errorf("failed to update file status: %w", err)
	}

	start := time.Now()
	chunks, err := s.indexFile(ctx, file)
	if err != nil {
		s.markFailed(ctx, file.ID, err)
		return err
	}

	if err := s.files.UpdateStatus(ctx, file.ID, models.UploadStatusSuccess); err != nil {
		if isNotFound(err) {
			// Deleted while processing; the vectors just written belong to nobody
			s.log.Warn("file deleted during ingestion", "file_id", file.ID)
			if derr := s.index.DeleteNamespace(context.WithoutCancel(ctx), file.ID); derr != nil {
				s.log.Error("failed to drop namespace of deleted file", "file_id", file.ID, "error", derr)
			}
			return nil
		}
		return fmt.Errorf("failed to complete file: %w", err)
	}

	s.log.Info("file indexed", "file_id", file.ID, "chunks", chunks, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (s *IndexService) indexFile(ctx context.Context, file *models.File) (int, error) {
	rc, err := s.storage.Download(ctx, file.Key)
	if err != nil {
		return 0, fmt.Errorf("failed to download file: %w", err)
	}
	raw, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}
	if !utf8.Valid(raw) {
		return 0, fmt.Errorf("file %s is not valid UTF-8 text", file.ID)
	}

	chunks := SplitText(string(raw), s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return 0, ErrEmptyDocument
	}

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("%w: got %d embeddings for %d chunks", ErrEmbeddingFailed, len(embeddings), len(chunks))
	}

	vectors := make([]vectorindex.Vector, len(chunks))
	for i, chunk := range chunks {
		vectors[i] = vectorindex.Vector{
			ID:         fmt.Sprintf("%s#%d", file.ID, i),
			Values:     embeddings[i],
			ChunkIndex: i,
			Text:       chunk,
		}
	}

	if err := s.index.Upsert(ctx, file.ID, vectors); err != nil {
		return 0, fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return len(vectors), nil
}

// markFailed records FAILED even when ctx has already been cancelled
func (s *IndexService) markFailed(ctx context.Context, fileID string, cause error) {
	err := s.files.UpdateStatus(context.WithoutCancel(ctx), fileID, models.UploadStatusFailed)
	if err != nil && !isNotFound(err) {
		s.log.Error("failed to mark file failed", "file_id", fileID, "error", err, "cause", cause)
	}
}

// ReindexResult summarises a ReindexStale run
type ReindexResult struct {
	Indexed int
	Failed  int
}

// ReindexStale processes up to limit files left in PENDING or FAILED, oldest first.
// PROCESSING files untouched for longer than the job timeout belong to a job
// that died with its process and are picked up too.
func (s *IndexService) ReindexStale(ctx context.Context, limit int) (*ReindexResult, error) {
	files, err := s.files.ListStale(ctx, s.now().Add(-s.jobTimeout), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale files: %w", err)
	}

	res := &ReindexResult{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.ProcessFile(ctx, f.ID); err != nil {
			s.log.Warn("reindex failed", "file_id", f.ID, "error", err)
			res.Failed++
			continue
		}
		res.Indexed++
	}
	return res, nil
}

// SplitText cuts text into chunks of at most size runes where consecutive
// chunks share overlap runes. Whitespace-only chunks are skipped.
func SplitText(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 || size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	step := size - overlap

	var chunks []string
	for start := 0; ; start += step {
		end := min(start+size, len(runes))
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
