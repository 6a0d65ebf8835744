// Package storage provides scoped job workspaces and persistent storage for
// finished artifacts. It defines the Storage interface (port) and
// implementations for local disk and S3-compatible object storage.
package storage

import (
	"context"
	"path"
	"strings"
)

// Storage defines the interface for temporary workspaces and artifact uploads.
type Storage interface {
	// NewWorkspace creates an empty directory exclusive to one job run.
	// cleanup removes it and everything inside; it is safe to call more than once.
	NewWorkspace(ctx context.Context, prefix string) (dir string, cleanup func(), err error)

	// Upload stores the file at localPath under key and returns its public URL.
	Upload(ctx context.Context, localPath, key string) (url string, err error)
}

// ContentType returns the MIME type stored with an object, based on the key's extension.
func ContentType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".srt":
		return "application/x-subrip"
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
