package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
)

var (
	// ErrFileNotFound is returned when a referenced file is missing on disk
	ErrFileNotFound = port.ErrFileNotFound

	// ErrPathEscape is returned for paths that resolve outside the public directory
	ErrPathEscape = errors.New("path escapes base directory")
)

const tempPattern = ".upload-*"

// LocalFileStorage is the filesystem attachment backend rooted at the public directory.
// Paths are root-relative, e.g. /uploads/tasks/<folder>/<file>.
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content to a temp file next to path and renames it into place,
// so readers never observe a partial attachment.
func (s *LocalFileStorage) Save(ctx context.Context, path string, content []byte) error {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create attachment directory", zap.String("dir", dir), zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		s.logger.Error("Failed to write attachment", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		s.logger.Error("Failed to move attachment into place", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to write file: %w", err)
	}
	committed = true

	s.logger.Debug("Attachment saved",
		zap.String("path", path),
		zap.Int("size", len(content)))
	return nil
}

// Read returns the whole content of path
func (s *LocalFileStorage) Read(ctx context.Context, path string) ([]byte, error) {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fsError("read", path, err)
	}
	return content, nil
}

// Open returns a reader over path. The caller closes it.
func (s *LocalFileStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fsError("open", path, err)
	}
	return f, nil
}

// Size returns the byte length of path without reading it
func (s *LocalFileStorage) Size(ctx context.Context, path string) (int64, error) {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return 0, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return 0, fsError("stat", path, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	return info.Size(), nil
}

// Exists reports whether a regular file is stored at path
func (s *LocalFileStorage) Exists(ctx context.Context, path string) bool {
	_, err := s.Size(ctx, path)
	return err == nil
}

// Delete removes the file at path. A missing file is not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, path string) error {
	fullPath, err := s.resolve(ctx, path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Error("Failed to delete attachment", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.logger.Debug("Attachment deleted", zap.String("path", path))
	return nil
}

// GetFullPath converts a root-relative path to a filesystem path
func (s *LocalFileStorage) GetFullPath(relativePath string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(relativePath))
}

func (s *LocalFileStorage) resolve(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath := s.GetFullPath(path)
	if !within(s.baseDir, fullPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, path)
	}
	return fullPath, nil
}

// within reports whether target resolves to base or somewhere below it
func within(base, target string) bool {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fsError(op, path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	return fmt.Errorf("failed to %s file %s: %w", op, path, err)
}

var _ port.FileStorage = (*LocalFileStorage)(nil)
