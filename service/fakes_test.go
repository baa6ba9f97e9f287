package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"papertalk-backend/models"
	"papertalk-backend/queue"
	"papertalk-backend/repository"
	"papertalk-backend/storage"
	"papertalk-backend/vectorindex"
)

var errBoom = errors.New("boom")

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	getErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*models.User{}}
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) CreateIfNotExists(_ context.Context, user *models.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; ok {
		return false, nil
	}
	cp := *user
	cp.CreatedAt = time.Now()
	f.users[user.ID] = &cp
	return true, nil
}

type fakeFileStore struct {
	mu        sync.Mutex
	files     map[string]*models.File
	seq       int
	createErr error
	getErr    error
	deleteErr error
	updateErr error
	statuses  []models.UploadStatus
}

func newFakeFileStore(files ...*models.File) *fakeFileStore {
	f := &fakeFileStore{files: map[string]*models.File{}}
	for _, file := range files {
		f.put(file)
	}
	return f
}

func (f *fakeFileStore) put(file *models.File) {
	f.seq++
	cp := *file
	if cp.UploadStatus == "" {
		cp.UploadStatus = models.UploadStatusPending
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = time.Now()
	}
	f.files[cp.ID] = &cp
}

func (f *fakeFileStore) get(id string) *models.File {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[id]; ok {
		cp := *file
		return &cp
	}
	return nil
}

func (f *fakeFileStore) Create(_ context.Context, file *models.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.put(file)
	file.CreatedAt = f.files[file.ID].CreatedAt
	return nil
}

func (f *fakeFileStore) GetByID(_ context.Context, id string) (*models.File, error) {
	if file := f.get(id); file != nil {
		return file, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFileStore) GetOwned(_ context.Context, id, userID string) (*models.File, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if file := f.get(id); file != nil && file.UserID == userID {
		return file, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFileStore) GetOwnedByKey(_ context.Context, key, userID string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.Key == key && file.UserID == userID {
			cp := *file
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeFileStore) ListByUserID(_ context.Context, userID string) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.File, 0)
	for _, file := range f.files {
		if file.UserID == userID {
			cp := *file
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeFileStore) ListStale(_ context.Context, processingBefore time.Time, limit int) ([]*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.File, 0)
	for _, file := range f.files {
		switch {
		case file.UploadStatus == models.UploadStatusPending, file.UploadStatus == models.UploadStatusFailed:
		case file.UploadStatus == models.UploadStatusProcessing && file.UpdatedAt.Before(processingBefore):
		default:
			continue
		}
		cp := *file
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeFileStore) DeleteOwned(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	file, ok := f.files[id]
	if !ok || file.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.files, id)
	return nil
}

func (f *fakeFileStore) UpdateStatus(_ context.Context, id string, status models.UploadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	if f.updateErr != nil {
		return f.updateErr
	}
	file, ok := f.files[id]
	if !ok {
		return repository.ErrNotFound
	}
	file.UploadStatus = status
	file.UpdatedAt = time.Now()
	return nil
}

type fakeMessageStore struct {
	messages []models.Message
	err      error
	takes    []int
}

func (f *fakeMessageStore) ListPage(_ context.Context, fileID string, cursor *string, take int) ([]models.Message, error) {
	f.takes = append(f.takes, take)
	if f.err != nil {
		return nil, f.err
	}

	var rows []models.Message
	for _, m := range f.messages {
		if m.FileID == fileID {
			rows = append(rows, m)
		}
	}
	less := func(a, b models.Message) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })

	if cursor != nil {
		pos := -1
		for i, m := range rows {
			if m.ID == *cursor {
				pos = i
				break
			}
		}
		if pos < 0 {
			return []models.Message{}, nil
		}
		rows = rows[pos+1:]
	}
	if len(rows) > take {
		rows = rows[:take]
	}
	return append([]models.Message{}, rows...), nil
}

type fakeStorage struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
	deleteErr error
	deletes   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = raw
	return nil
}

func (f *fakeStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *fakeStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStorage) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

type fakeIndex struct {
	mu         sync.Mutex
	namespaces map[string][]vectorindex.Vector
	upsertErr  error
	deleteErr  error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{namespaces: map[string][]vectorindex.Vector{}}
}

func (f *fakeIndex) Upsert(_ context.Context, ns string, vectors []vectorindex.Vector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.namespaces[ns] = append(f.namespaces[ns], vectors...)
	return nil
}

func (f *fakeIndex) DeleteNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.namespaces, ns)
	return nil
}

func (f *fakeIndex) has(ns string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.namespaces[ns]
	return ok
}

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(i)}
	}
	return out, nil
}

type fakeIngestor struct {
	mu      sync.Mutex
	started []string
}

func (f *fakeIngestor) Start(fileID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, fileID)
}

// failingQueue refuses every enqueue
type failingQueue struct {
	*queue.MemoryQueue
}

func (failingQueue) Enqueue(context.Context, queue.CleanupTask) error {
	return errors.New("queue unavailable")
}
