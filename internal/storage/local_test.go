package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewLocalStorage(t *testing.T) {
	t.Run("creates directories if not exist", func(t *testing.T) {
		root := t.TempDir()
		tempDir := filepath.Join(root, "work")

		storage, err := NewLocalStorage(tempDir, "", "")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		if storage.TempDir() != tempDir {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), tempDir)
		}
		if storage.PublicDir() != filepath.Join(tempDir, "public") {
			t.Errorf("PublicDir() = %v", storage.PublicDir())
		}

		for _, dir := range []string{tempDir, storage.PublicDir()} {
			info, err := os.Stat(dir)
			if err != nil {
				t.Fatalf("directory not created: %v", err)
			}
			if !info.IsDir() {
				t.Error("expected directory, got file")
			}
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		storage, err := NewLocalStorage("", "", "")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}
		expected := filepath.Join(os.TempDir(), "sportsreel")
		if storage.TempDir() != expected {
			t.Errorf("TempDir() = %v, want %v", storage.TempDir(), expected)
		}
	})
}

func TestLocalStorage_NewWorkspace(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "", "")
	require.NoError(t, err)
	ctx := context.Background()

	dir1, cleanup1, err := storage.NewWorkspace(ctx, "job-1")
	require.NoError(t, err)
	dir2, cleanup2, err := storage.NewWorkspace(ctx, "job-1")
	require.NoError(t, err)
	defer cleanup2()

	assert.NotEqual(t, dir1, dir2, "workspaces are exclusive")
	assert.True(t, strings.HasPrefix(filepath.Base(dir1), "job-1-"))

	writeFile(t, dir1, "narration.mp3", "audio")
	cleanup1()
	cleanup1()

	_, err = os.Stat(dir1)
	assert.True(t, errors.Is(err, os.ErrNotExist), "workspace should be removed")
	_, err = os.Stat(dir2)
	assert.NoError(t, err)
}

func TestLocalStorage_NewWorkspace_Cancelled(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir(), "", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = storage.NewWorkspace(ctx, "job")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorage_Upload(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(filepath.Join(root, "tmp"), filepath.Join(root, "public"), "http://localhost:8080/files/")
	require.NoError(t, err)

	src := writeFile(t, root, "video.mp4", "video-bytes")
	url, err := storage.Upload(context.Background(), src, "abc-video.mp4")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/files/abc-video.mp4", url)
	data, err := os.ReadFile(filepath.Join(root, "public", "abc-video.mp4"))
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}

func TestLocalStorage_Upload_FileURL(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root, "", "")
	require.NoError(t, err)

	src := writeFile(t, root, "a.srt", "1")
	url, err := storage.Upload(context.Background(), src, "abc.srt")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"), url)
	assert.True(t, strings.HasSuffix(url, "/public/abc.srt"), url)
}

func TestLocalStorage_Upload_Errors(t *testing.T) {
	root := t.TempDir()
	storage, err := NewLocalStorage(root, "", "")
	require.NoError(t, err)
	src := writeFile(t, root, "a.mp3", "x")

	tests := []struct {
		name string
		src  string
		key  string
	}{
		{"empty key", src, ""},
		{"path traversal", src, "../escape.mp3"},
		{"nested key", src, "a/b.mp3"},
		{"missing source", filepath.Join(root, "missing.mp3"), "ok.mp3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.Upload(context.Background(), tt.src, tt.key)
			assert.Error(t, err)
		})
	}

	_, err = storage.Upload(context.Background(), src, "../escape.mp3")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"id.mp3":           "audio/mpeg",
		"id.srt":           "application/x-subrip",
		"id-video.mp4":     "video/mp4",
		"id-thumbnail.jpg": "image/jpeg",
		"id.JPEG":          "image/jpeg",
		"id.bin":           "application/octet-stream",
	}
	for key, want := range tests {
		if got := ContentType(key); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", key, got, want)
		}
	}
}
