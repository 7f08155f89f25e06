package service

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/storage"
)

type countingMetrics struct {
	stored map[string]int
	failed map[string]int
	built  map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{stored: map[string]int{}, failed: map[string]int{}, built: map[string]int{}}
}

func (m *countingMetrics) AttachmentStored(backend string, ok bool) {
	if ok {
		m.stored[backend]++
		return
	}
	m.failed[backend]++
}

func (m *countingMetrics) ArchiveBuilt(mode, outcome string) {
	m.built[mode+"/"+outcome]++
}

func newAttachmentFixture(t *testing.T) (*attachmentServiceImpl, *fakeBlobStore, *countingMetrics, string) {
	t.Helper()
	publicDir := t.TempDir()
	logger := zap.NewNop()
	blobs := newFakeBlobStore()
	metrics := newCountingMetrics()
	svc := NewAttachmentService(
		storage.NewLocalFileStorage(publicDir, logger),
		storage.NewLocalFolderManager(filepath.Join(publicDir, "uploads", "tasks"), logger),
		blobs,
		DefaultAttachmentPolicy(),
		metrics,
		&mockLogger{},
	).(*attachmentServiceImpl)
	return svc, blobs, metrics, publicDir
}

func TestAttachmentPolicy_Validate(t *testing.T) {
	policy := DefaultAttachmentPolicy()

	tests := []struct {
		name    string
		upload  Upload
		wantErr bool
	}{
		{"pdf", Upload{Filename: "a.pdf", ContentType: "application/pdf", Content: []byte("x")}, false},
		{"mime with params", Upload{Filename: "notes", ContentType: "text/plain; charset=utf-8", Content: []byte("x")}, false},
		{"extension only", Upload{Filename: "sheet.xlsx", ContentType: "application/octet-stream", Content: []byte("x")}, false},
		{"upper-case extension", Upload{Filename: "PHOTO.JPG", Content: []byte("x")}, false},
		{"executable", Upload{Filename: "setup.exe", ContentType: "application/x-msdownload", Content: []byte("x")}, true},
		{"no name", Upload{Filename: "", ContentType: "application/pdf", Content: []byte("x")}, true},
		{"too large", Upload{Filename: "big.pdf", ContentType: "application/pdf", Content: make([]byte, DefaultMaxFileBytes+1)}, true},
		{"exactly at limit", Upload{Filename: "big.pdf", ContentType: "application/pdf", Content: make([]byte, DefaultMaxFileBytes)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate(tt.upload)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestAttachmentService_ResolveFolder(t *testing.T) {
	svc, _, _, _ := newAttachmentFixture(t)

	assert.Equal(t, "f1", svc.ResolveFolder(entity.RefList{"64b7f0c2a1d3e4f5a6b7c8d9"}, entity.RefList{"/uploads/tasks/f1/a.pdf"}))

	fresh := svc.ResolveFolder(entity.RefList{"64b7f0c2a1d3e4f5a6b7c8d9"})
	parts := strings.SplitN(fresh, "-", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[1], 8)
}

func TestAttachmentService_StoreToFilesystem(t *testing.T) {
	svc, _, metrics, _ := newAttachmentFixture(t)
	ctx := context.Background()
	svc.now = func() time.Time { return time.UnixMilli(1700000000123) }

	ref, err := svc.StoreToFilesystem(ctx, "f1", pdfUpload("TasksAttachment", "Site Report.pdf"), NameTimestamped)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/tasks/f1/1700000000123-Site_Report.pdf", ref)

	dup, err := svc.StoreToFilesystem(ctx, "f1", pdfUpload("TasksAttachment", "Site Report.pdf"), NameTimestamped)
	require.NoError(t, err)
	assert.NotEqual(t, ref, dup)
	assert.Equal(t, ".pdf", path.Ext(dup))

	random, err := svc.StoreToFilesystem(ctx, "f1", pdfUpload("TasksAttachment", "x.pdf"), NameRandom)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSuffix(path.Base(random), ".pdf"), 36)

	content, err := svc.Read(ctx, entity.ParseRef(ref))
	require.NoError(t, err)
	assert.Equal(t, "1700000000123-Site_Report.pdf", content.Name)
	assert.Equal(t, "application/pdf", content.ContentType)
	assert.Equal(t, "%PDF-1.4 Site Report.pdf", string(content.Data))

	assert.Equal(t, 3, metrics.stored["filesystem"])
}

func TestAttachmentService_Blob(t *testing.T) {
	svc, blobs, metrics, _ := newAttachmentFixture(t)
	ctx := context.Background()

	id, err := svc.StoreToBlob(ctx, Upload{Filename: "scan.png", Content: []byte("png")}, BlobMeta{
		UploaderID: "u1",
		TaskID:     "t1",
		Category:   entity.CategoryAssignment,
	})
	require.NoError(t, err)
	assert.True(t, entity.ParseRef(id).IsBlob())

	info, err := blobs.Stat(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.ContentType)
	assert.Equal(t, "scan.png", info.Metadata[port.BlobMetaOriginalName])
	assert.Equal(t, "u1", info.Metadata[port.BlobMetaUploaderID])
	assert.Equal(t, "assignment", info.Metadata[port.BlobMetaCategory])
	assert.NotEmpty(t, info.Metadata[port.BlobMetaUploadedAt])

	content, err := svc.ReadBlob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "scan.png", content.Name)
	assert.Equal(t, []byte("png"), content.Data)

	_, err = svc.ReadBlob(ctx, "64b7f0c2a1d3e4f5a6b7c8d9")
	assert.True(t, IsNotFound(err))

	blobs.uploadErr = errBoom
	_, err = svc.StoreToBlob(ctx, pdfUpload("f", "a.pdf"), BlobMeta{})
	assert.True(t, IsStorage(err))
	assert.Equal(t, 1, metrics.failed["blob"])
}

func TestAttachmentService_OpenRejectsForeignPaths(t *testing.T) {
	svc, _, _, _ := newAttachmentFixture(t)
	ctx := context.Background()

	for _, raw := range []string{"/etc/passwd", "/uploads/../etc/passwd", "/uploads/tasks/f/missing.pdf"} {
		_, _, err := svc.Open(ctx, entity.ParseRef(raw))
		assert.True(t, IsNotFound(err), raw)
	}
}

func TestAttachmentService_Delete(t *testing.T) {
	svc, blobs, _, publicDir := newAttachmentFixture(t)
	ctx := context.Background()

	ref, err := svc.StoreToFilesystem(ctx, "f2", pdfUpload("f", "a.pdf"), NameTimestamped)
	require.NoError(t, err)

	svc.DeleteFile(ctx, ref)
	_, err = svc.Stat(ctx, entity.ParseRef(ref))
	assert.True(t, IsNotFound(err))

	svc.DeleteFolder(ctx, "f2")
	assert.NoDirExists(t, filepath.Join(publicDir, "uploads", "tasks", "f2"))

	// empty folder names never resolve to the uploads root
	svc.DeleteFolder(ctx, "..")
	assert.DirExists(t, filepath.Join(publicDir, "uploads", "tasks"))

	id, err := blobs.Upload(ctx, "b.pdf", "application/pdf", []byte("x"), nil)
	require.NoError(t, err)
	svc.DeleteFile(ctx, id)
	assert.Equal(t, 1, blobs.count())
	svc.DeleteBlob(ctx, id)
	assert.Zero(t, blobs.count())
	svc.DeleteBlob(ctx, id)
}

func TestAttachmentService_StreamPath(t *testing.T) {
	svc, _, _, _ := newAttachmentFixture(t)
	ctx := context.Background()

	ref, err := svc.StoreToFilesystem(ctx, "f3", Upload{Filename: "notes.txt", ContentType: "text/plain", Content: []byte("hello")}, NameTimestamped)
	require.NoError(t, err)

	rc, info, err := svc.Open(ctx, entity.ParseRef(ref))
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, int64(5), info.Size)
	assert.True(t, strings.HasPrefix(info.ContentType, "text/plain"))
}
