package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"papertalk-backend/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	id := uuid.MustParse("ab12cd34-0000-4000-8000-000000000001")

	key := GenerateKey(id, "My Paper/draft v2.TXT")
	assert.Equal(t, "ab/ab12cd34-0000-4000-8000-000000000001_draft_v2.txt", key)

	assert.Equal(t, "ab/ab12cd34-0000-4000-8000-000000000001_file", GenerateKey(id, ""))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/plain", ContentType("a/b.txt"))
	assert.Equal(t, "text/markdown", ContentType("notes.MD"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := GenerateKey(uuid.New(), "paper.txt")
	require.NoError(t, s.Upload(ctx, key, strings.NewReader("hello world")))

	rc, err := s.Download(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))

	require.NoError(t, s.Upload(ctx, key, strings.NewReader("replaced")))
	rc, err = s.Download(ctx, key)
	require.NoError(t, err)
	body, _ = io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "replaced", string(body))
}

func TestLocalStorage_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := "xx/some-file.txt"
	require.NoError(t, s.Upload(ctx, key, bytes.NewReader([]byte("x"))))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key), "second delete of a missing object succeeds")

	_, err = s.Download(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestLocalStorage_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../outside.txt", "a/../../outside.txt"} {
		assert.Error(t, s.Upload(ctx, key, strings.NewReader("x")), key)
		assert.Error(t, s.Delete(ctx, key), key)
	}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	s, err := NewStorage(ctx, config.StorageConfig{Type: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = NewStorage(ctx, config.StorageConfig{Type: "s3"})
	assert.ErrorContains(t, err, "AWS_S3_BUCKET")

	_, err = NewStorage(ctx, config.StorageConfig{Type: "gcs"})
	assert.ErrorContains(t, err, "unknown storage type")
}

func newTestS3(t *testing.T, handler http.HandlerFunc) *S3Storage {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewS3Storage(context.Background(), config.StorageConfig{
		S3Bucket:     "papers",
		S3Region:     "us-east-1",
		S3Endpoint:   srv.URL,
		AWSAccessKey: "test",
		AWSSecretKey: "test",
	})
	require.NoError(t, err)
	return s
}

func TestS3Storage_Delete(t *testing.T) {
	var gotMethod, gotPath string
	s := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, s.Delete(context.Background(), "ab/file.txt"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/papers/ab/file.txt", gotPath)
}

func TestS3Storage_DownloadMissingKey(t *testing.T) {
	s := newTestS3(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
	})

	_, err := s.Download(context.Background(), "ab/missing.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
