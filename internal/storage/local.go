package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidKey is returned when an object key would escape the public directory.
var ErrInvalidKey = errors.New("storage: invalid object key")

// LocalStorage implements Storage using local disk.
// Workspaces live under tempDir; uploads are copied into publicDir and
// addressed below publicBaseURL.
type LocalStorage struct {
	tempDir       string
	publicDir     string
	publicBaseURL string
}

// NewLocalStorage creates a new LocalStorage instance.
// If tempDir is empty, a directory under os.TempDir() is used. If publicDir
// is empty, uploads go to tempDir/public. Both directories are created if
// they don't exist. An empty publicBaseURL yields file:// URLs.
func NewLocalStorage(tempDir, publicDir, publicBaseURL string) (*LocalStorage, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "sportsreel")
	}
	if publicDir == "" {
		publicDir = filepath.Join(tempDir, "public")
	}

	for _, dir := range []string{tempDir, publicDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return &LocalStorage{
		tempDir:       tempDir,
		publicDir:     publicDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStorage) TempDir() string {
	return s.tempDir
}

// PublicDir returns the directory uploads are copied to.
func (s *LocalStorage) PublicDir() string {
	return s.publicDir
}

// NewWorkspace creates a unique directory under TempDir.
func (s *LocalStorage) NewWorkspace(ctx context.Context, prefix string) (string, func(), error) {
	if err := ctx.Err(); err != nil {
		return "", nil, fmt.Errorf("context cancelled: %w", err)
	}

	dir, err := os.MkdirTemp(s.tempDir, prefix+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("create workspace: %w", err)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() { _ = os.RemoveAll(dir) })
	}
	return dir, cleanup, nil
}

// Upload copies localPath into the public directory under key.
func (s *LocalStorage) Upload(ctx context.Context, localPath, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled: %w", err)
	}

	dst, err := s.objectPath(key)
	if err != nil {
		return "", err
	}

	src, err := os.Open(localPath) // #nosec G304 - localPath is inside a job workspace
	if err != nil {
		return "", fmt.Errorf("open upload source: %w", err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.Create(dst) // #nosec G304 - dst is validated by objectPath
	if err != nil {
		return "", fmt.Errorf("create public file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("copy public file: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close public file: %w", err)
	}

	return s.URL(key), nil
}

// URL returns the public URL of key.
func (s *LocalStorage) URL(key string) string {
	if s.publicBaseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(filepath.Join(s.publicDir, key))}).String()
	}
	return s.publicBaseURL + "/" + url.PathEscape(key)
}

func (s *LocalStorage) objectPath(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.publicDir, key), nil
}
