package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFolderManager_CreateFolder(t *testing.T) {
	tempDir := t.TempDir()
	logger, _ := zap.NewDevelopment()
	fm := NewLocalFolderManager(tempDir, logger)
	ctx := context.Background()

	t.Run("creates folder", func(t *testing.T) {
		folderPath, err := fm.CreateFolder(ctx, "1700000000000-ab12cd34")

		require.NoError(t, err)
		assert.DirExists(t, folderPath)
		assert.Equal(t, filepath.Join(tempDir, "1700000000000-ab12cd34"), folderPath)
		assert.True(t, fm.Exists("1700000000000-ab12cd34"))
	})

	t.Run("is idempotent", func(t *testing.T) {
		p1, err := fm.CreateFolder(ctx, "existing")
		require.NoError(t, err)
		p2, err := fm.CreateFolder(ctx, "existing")
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	})

	t.Run("rejects names that sanitize to empty", func(t *testing.T) {
		_, err := fm.CreateFolder(ctx, "../..")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})
}

func TestFolderManager_SanitizeName(t *testing.T) {
	fm := NewLocalFolderManager(t.TempDir(), zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "1700000000000-ab12cd34", "1700000000000-ab12cd34"},
		{"traversal", "../../etc", "etc"},
		{"separators", "a/b\\c", "abc"},
		{"spaces and dots", "my folder.v2", "myfolderv2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fm.SanitizeName(tt.input))
		})
	}
}

func TestFolderManager_Delete(t *testing.T) {
	tempDir := t.TempDir()
	fm := NewLocalFolderManager(tempDir, zap.NewNop())
	ctx := context.Background()

	folderPath, err := fm.CreateFolder(ctx, "task-folder")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(folderPath, "a.pdf"), []byte("a"), 0644))

	require.NoError(t, fm.Delete(ctx, "task-folder"))
	assert.NoDirExists(t, folderPath)

	// deleting again is fine
	assert.NoError(t, fm.Delete(ctx, "task-folder"))

	// an empty name never removes the base directory
	assert.Error(t, fm.Delete(ctx, ".."))
	assert.DirExists(t, tempDir)
}
