package upload

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"lyricvideo/internal/config"
)

func newTestUploader(t *testing.T, handler http.HandlerFunc) *DriveUploader {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	svc, err := drive.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewDriveUploaderWithService(svc, "folder-1")
}

func writeVideo(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "song_1_lines_1-8.mp4")
	require.NoError(t, os.WriteFile(path, []byte("mp4 bytes"), 0o644))
	return path
}

func TestUploadVideo(t *testing.T) {
	var mu sync.Mutex
	var body string
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(b)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"file-9","webViewLink":"https://drive.google.com/file/d/file-9/view"}`))
	})

	path := writeVideo(t)
	res, err := u.UploadVideo(context.Background(), path, false)
	require.NoError(t, err)
	assert.Equal(t, &Result{FileID: "file-9", WebViewLink: "https://drive.google.com/file/d/file-9/view", FolderID: "folder-1"}, res)
	assert.FileExists(t, path)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, body, `"song_1_lines_1-8.mp4"`)
	assert.Contains(t, body, `"folder-1"`)
	assert.Contains(t, body, "mp4 bytes")
}

func TestUploadVideo_DeletesLocalFile(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"file-9"}`))
	})
	path := writeVideo(t)
	_, err := u.UploadVideo(context.Background(), path, true)
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestUploadVideo_KeepsFileOnFailure(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"quota"}}`, http.StatusForbidden)
	})
	path := writeVideo(t)
	_, err := u.UploadVideo(context.Background(), path, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "drive upload")
	assert.FileExists(t, path)
}

func TestNewDriveUploader_Disabled(t *testing.T) {
	_, err := NewDriveUploader(context.Background(), config.DriveConfig{ClientID: "id"})
	assert.ErrorIs(t, err, ErrDriveDisabled)
}

func TestMimeType(t *testing.T) {
	assert.Equal(t, "video/mp4", mimeType("a.mp4"))
	assert.Equal(t, "application/json", mimeType("a.mp4.json"))
	assert.True(t, strings.HasPrefix(mimeType("a.txt"), "text/plain"))
	assert.Equal(t, "application/octet-stream", mimeType("a.unknownext"))
}
