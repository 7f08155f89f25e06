package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
)

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// LocalFolderManager owns the per-task folders under <public>/uploads/tasks.
// Folder names are single path segments; anything else is stripped.
type LocalFolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFolderManager creates a new LocalFolderManager rooted at the task uploads directory
func NewLocalFolderManager(baseDir string, logger *zap.Logger) *LocalFolderManager {
	return &LocalFolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// CreateFolder creates the named folder if missing and returns its path
func (m *LocalFolderManager) CreateFolder(ctx context.Context, name string) (string, error) {
	dir, err := m.folder(name)
	if err != nil {
		return "", fmt.Errorf("cannot create folder: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		m.logger.Error("Failed to create task folder",
			zap.String("name", name),
			zap.String("folder_path", dir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}
	return dir, nil
}

// GetPath returns the path for a folder without creating it
func (m *LocalFolderManager) GetPath(name string) string {
	return filepath.Join(m.baseDir, m.SanitizeName(name))
}

// Exists reports whether the folder is present
func (m *LocalFolderManager) Exists(name string) bool {
	dir, err := m.folder(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// Delete removes a folder and its attachments. A missing folder is not an error.
func (m *LocalFolderManager) Delete(ctx context.Context, name string) error {
	dir, err := m.folder(name)
	if err != nil {
		return fmt.Errorf("cannot delete folder: %w", err)
	}

	if err := os.RemoveAll(dir); err != nil {
		m.logger.Error("Failed to delete task folder",
			zap.String("name", name),
			zap.String("folder_path", dir),
			zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	m.logger.Debug("Task folder deleted", zap.String("folder_path", dir))
	return nil
}

// SanitizeName strips separators and anything outside [a-zA-Z0-9-_]
func (m *LocalFolderManager) SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	return unsafeFolderChars.ReplaceAllString(name, "")
}

// folder resolves name to a directory strictly below the base directory
func (m *LocalFolderManager) folder(name string) (string, error) {
	safe := m.SanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("empty name %q", name)
	}
	return filepath.Join(m.baseDir, safe), nil
}

var _ port.FolderManager = (*LocalFolderManager)(nil)
