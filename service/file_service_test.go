package service

import (
	"context"
	"strings"
	"testing"

	"papertalk-backend/auth"
	"papertalk-backend/logger"
	"papertalk-backend/models"
	"papertalk-backend/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.Identity{UserID: "alice", Email: "alice@example.com"}
	bob   = auth.Identity{UserID: "bob", Email: "bob@example.com"}
)

type fileFixture struct {
	files   *fakeFileStore
	storage *fakeStorage
	index   *fakeIndex
	queue   *queue.MemoryQueue
	ingest  *fakeIngestor
	svc     *FileService
}

func newFileFixture(t *testing.T, files ...*models.File) *fileFixture {
	t.Helper()
	f := &fileFixture{
		files:   newFakeFileStore(files...),
		storage: newFakeStorage(),
		index:   newFakeIndex(),
		queue:   queue.NewMemoryQueue(),
		ingest:  &fakeIngestor{},
	}
	for _, file := range files {
		f.storage.objects[file.Key] = []byte("body of " + file.ID)
		f.index.namespaces[file.ID] = nil
	}
	f.svc = NewFileService(logger.Nop(),
		FileWithStore(f.files),
		FileWithStorage(f.storage),
		FileWithIndex(f.index),
		FileWithCleanupQueue(f.queue),
		FileWithIngestor(f.ingest),
		FileWithMaxUploadBytes(64),
	)
	return f
}

func aliceFile() *models.File {
	return &models.File{ID: "f1", Name: "paper.txt", Key: "f1/paper.txt", UserID: "alice", UploadStatus: models.UploadStatusSuccess}
}

func TestGetUserFiles_OwnerScoped(t *testing.T) {
	fx := newFileFixture(t,
		aliceFile(),
		&models.File{ID: "f2", Key: "k2", UserID: "alice"},
		&models.File{ID: "f3", Key: "k3", UserID: "bob"},
	)

	files, err := fx.svc.GetUserFiles(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "f2", files[0].ID, "newest first")
	for _, f := range files {
		assert.Equal(t, "alice", f.UserID)
	}

	files, err = fx.svc.GetUserFiles(context.Background(), auth.Identity{UserID: "carol"})
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)

	_, err = fx.svc.GetUserFiles(context.Background(), auth.Identity{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestGetFile_ByKey(t *testing.T) {
	fx := newFileFixture(t, aliceFile())

	file, err := fx.svc.GetFile(context.Background(), alice, "f1/paper.txt")
	require.NoError(t, err)
	assert.Equal(t, "f1", file.ID)

	_, err = fx.svc.GetFile(context.Background(), bob, "f1/paper.txt")
	assert.ErrorIs(t, err, ErrNotFound, "another user's key looks absent")

	_, err = fx.svc.GetFile(context.Background(), alice, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = fx.svc.GetFile(context.Background(), alice, "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGetFileUploadStatus(t *testing.T) {
	weird := &models.File{ID: "f9", Key: "k9", UserID: "alice", UploadStatus: models.UploadStatus("ARCHIVED")}
	fx := newFileFixture(t, aliceFile(), weird)

	status, err := fx.svc.GetFileUploadStatus(context.Background(), alice, "f1")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusSuccess, status)

	status, err = fx.svc.GetFileUploadStatus(context.Background(), alice, "f9")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatus("ARCHIVED"), status, "stored value is returned verbatim")

	status, err = fx.svc.GetFileUploadStatus(context.Background(), alice, "missing")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusPending, status)

	status, err = fx.svc.GetFileUploadStatus(context.Background(), bob, "f1")
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusPending, status)

	fx.files.getErr = errBoom
	_, err = fx.svc.GetFileUploadStatus(context.Background(), alice, "f1")
	assert.ErrorIs(t, err, errBoom)
}

func TestDeleteFile_RemovesEverything(t *testing.T) {
	fx := newFileFixture(t, aliceFile())

	deleted, err := fx.svc.DeleteFile(context.Background(), alice, "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1", deleted.ID)
	assert.Equal(t, "f1/paper.txt", deleted.Key)

	assert.Nil(t, fx.files.get("f1"))
	assert.False(t, fx.storage.has("f1/paper.txt"))
	assert.False(t, fx.index.has("f1"))

	_, err = fx.svc.GetFile(context.Background(), alice, "f1/paper.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	files, err := fx.svc.GetUserFiles(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, files)

	n, _ := fx.queue.Len(context.Background())
	assert.Zero(t, n)
}

func TestDeleteFile_OtherOwnerIsNotFound(t *testing.T) {
	fx := newFileFixture(t, aliceFile())

	_, err := fx.svc.DeleteFile(context.Background(), bob, "f1")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NotNil(t, fx.files.get("f1"))
	assert.True(t, fx.storage.has("f1/paper.txt"))
	assert.True(t, fx.index.has("f1"))
	assert.Zero(t, fx.storage.deletes)
}

func TestDeleteFile_Validation(t *testing.T) {
	fx := newFileFixture(t, aliceFile())

	_, err := fx.svc.DeleteFile(context.Background(), alice, " ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = fx.svc.DeleteFile(context.Background(), auth.Identity{}, "f1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestDeleteFile_RowDeleteFailureTouchesNothingElse(t *testing.T) {
	fx := newFileFixture(t, aliceFile())
	fx.files.deleteErr = errBoom

	_, err := fx.svc.DeleteFile(context.Background(), alice, "f1")
	require.ErrorIs(t, err, errBoom)
	assert.True(t, fx.storage.has("f1/paper.txt"))
	assert.True(t, fx.index.has("f1"))
}

func TestDeleteFile_StorageFailureQueuesCleanup(t *testing.T) {
	fx := newFileFixture(t, aliceFile())
	fx.storage.deleteErr = errBoom

	deleted, err := fx.svc.DeleteFile(context.Background(), alice, "f1")
	require.NoError(t, err, "leftovers do not fail the call")
	assert.Equal(t, "f1", deleted.ID)
	assert.Nil(t, fx.files.get("f1"))
	assert.False(t, fx.index.has("f1"), "the index side still ran")

	task, err := fx.queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, "f1", task.FileID)
	assert.Equal(t, "f1/paper.txt", task.Key)
	assert.True(t, task.Storage)
	assert.False(t, task.Index)
	assert.Contains(t, task.LastError, "boom")
}

func TestDeleteFile_IndexFailureQueuesCleanup(t *testing.T) {
	fx := newFileFixture(t, aliceFile())
	fx.index.deleteErr = errBoom

	_, err := fx.svc.DeleteFile(context.Background(), alice, "f1")
	require.NoError(t, err)
	assert.False(t, fx.storage.has("f1/paper.txt"))

	task, err := fx.queue.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.False(t, task.Storage)
	assert.True(t, task.Index)
}

func TestDeleteFile_EnqueueFailureIsInternal(t *testing.T) {
	fx := newFileFixture(t, aliceFile())
	fx.storage.deleteErr = errBoom
	fx.svc.cleanup = failingQueue{queue.NewMemoryQueue()}

	_, err := fx.svc.DeleteFile(context.Background(), alice, "f1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "queue cleanup")
}

func TestDeleteFile_MinimalServiceDoesNotPanic(t *testing.T) {
	files := newFakeFileStore(aliceFile())
	st := newFakeStorage()
	st.objects["f1/paper.txt"] = []byte("body")
	st.deleteErr = errBoom
	svc := NewFileService(logger.Nop(), FileWithStore(files), FileWithStorage(st))

	var deleted *models.File
	var err error
	require.NotPanics(t, func() {
		deleted, err = svc.DeleteFile(context.Background(), alice, "f1")
	})
	require.NoError(t, err)
	assert.Equal(t, "f1", deleted.ID)
	assert.Nil(t, files.get("f1"))

	n, err := svc.cleanup.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the storage leftover lands in the default queue")

	task, err := svc.cleanup.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.True(t, task.Storage)
	assert.False(t, task.Index, "no index configured, nothing to remove")
}

func TestUploadFile_StoresAndStartsIngestion(t *testing.T) {
	fx := newFileFixture(t)
	body := "hello papertalk"

	file, err := fx.svc.UploadFile(context.Background(), alice, UploadFileRequest{
		Filename:    "notes.txt",
		ContentType: "text/plain; charset=utf-8",
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	})
	require.NoError(t, err)

	assert.Equal(t, models.UploadStatusPending, file.UploadStatus)
	assert.Equal(t, "alice", file.UserID)
	assert.Equal(t, "notes.txt", file.Name)
	assert.True(t, strings.HasSuffix(file.Key, "_notes.txt"))
	assert.Equal(t, []byte(body), fx.storage.objects[file.Key])
	assert.NotNil(t, fx.files.get(file.ID))
	assert.Equal(t, []string{file.ID}, fx.ingest.started)
}

func TestUploadFile_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UploadFileRequest
	}{
		{"no name", UploadFileRequest{Size: 3, Body: strings.NewReader("abc")}},
		{"empty", UploadFileRequest{Filename: "a.txt", Size: 0, Body: strings.NewReader("")}},
		{"too large", UploadFileRequest{Filename: "a.txt", Size: 65, Body: strings.NewReader(strings.Repeat("x", 65))}},
		{"pdf", UploadFileRequest{Filename: "a.pdf", ContentType: "application/pdf", Size: 3, Body: strings.NewReader("abc")}},
		{"unknown extension", UploadFileRequest{Filename: "a.bin", Size: 3, Body: strings.NewReader("abc")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFileFixture(t)
			_, err := fx.svc.UploadFile(context.Background(), alice, tc.req)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Empty(t, fx.storage.objects)
			assert.Empty(t, fx.ingest.started)
		})
	}
}

func TestUploadFile_UnderstatedSizeIsRejected(t *testing.T) {
	fx := newFileFixture(t)

	_, err := fx.svc.UploadFile(context.Background(), alice, UploadFileRequest{
		Filename: "a.md",
		Size:     10,
		Body:     strings.NewReader(strings.Repeat("x", 200)),
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Empty(t, fx.storage.objects, "the partial object is removed")
	assert.Empty(t, fx.files.files)
}

func TestUploadFile_RowFailureRemovesObject(t *testing.T) {
	fx := newFileFixture(t)
	fx.files.createErr = errBoom

	_, err := fx.svc.UploadFile(context.Background(), alice, UploadFileRequest{
		Filename: "a.txt",
		Size:     3,
		Body:     strings.NewReader("abc"),
	})
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, fx.storage.objects)
	assert.Empty(t, fx.ingest.started)
}

func TestIsTextDocument(t *testing.T) {
	assert.True(t, isTextDocument("a.txt", ""))
	assert.True(t, isTextDocument("a.bin", "text/plain"))
	assert.True(t, isTextDocument("README.MD", "application/octet-stream"))
	assert.False(t, isTextDocument("a.txt", "application/pdf"))
	assert.False(t, isTextDocument("a.pdf", ""))
}
