package port

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrBlobNotFound is returned when a blob id is absent or not a valid id
	ErrBlobNotFound = errors.New("blob not found")

	// ErrFileNotFound is returned when a referenced file is missing on disk
	ErrFileNotFound = errors.New("file not found")
)

// FileStorage defines file storage operations relative to the public directory
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Size(ctx context.Context, path string) (int64, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}

// FolderManager defines task folder operations
type FolderManager interface {
	CreateFolder(ctx context.Context, name string) (string, error)
	GetPath(name string) string
	Exists(name string) bool
	Delete(ctx context.Context, name string) error
	SanitizeName(name string) string
}

// BlobInfo describes a stored blob
type BlobInfo struct {
	ID          string
	Filename    string
	ContentType string
	Length      int64
	Metadata    map[string]string
	UploadedAt  time.Time
}

// BlobStore stores id-addressed binary objects
type BlobStore interface {
	// Upload writes content and returns the generated 24-hex id
	Upload(ctx context.Context, name, contentType string, content []byte, metadata map[string]string) (string, error)
	Stat(ctx context.Context, id string) (*BlobInfo, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *BlobInfo, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Blob metadata keys
const (
	BlobMetaOriginalName = "originalName"
	BlobMetaContentType  = "contentType"
	BlobMetaUploaderID   = "uploaderId"
	BlobMetaTaskID       = "taskId"
	BlobMetaCategory     = "category"
	BlobMetaUploadedAt   = "uploadedAt"
)
