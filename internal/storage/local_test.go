package storage

import (
	"bytes"
	"construction-backend/config"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, name, content string) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestLocalStorageUpload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)

	url, err := s.UploadFile(context.Background(), fileHeader(t, "plan.pdf", "%PDF-1.4"), "projects/7/plan_1234abcd.pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/projects/7/plan_1234abcd.pdf", url)

	data, err := os.ReadFile(filepath.Join(dir, "projects", "7", "plan_1234abcd.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestLocalStorageStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "base"), "/uploads")
	require.NoError(t, err)

	url, err := s.UploadFile(context.Background(), fileHeader(t, "x.txt", "x"), "../../escape.txt")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/escape.txt", url)
	assert.FileExists(t, filepath.Join(dir, "base", "escape.txt"))

	_, err = s.UploadFile(context.Background(), fileHeader(t, "x.txt", "x"), "")
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), config.Config{StorageBackend: "local", LocalStoragePath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), config.Config{StorageBackend: "ftp"})
	assert.Error(t, err)
}
