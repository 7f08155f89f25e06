package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/utils"
)

// TaskUploadsDir is the root-relative directory holding per-task upload folders
const TaskUploadsDir = entity.TaskUploadsRoot

const defaultContentType = "application/octet-stream"

// FileNaming selects how a stored file is named inside its folder
type FileNaming int

const (
	// NameTimestamped prefixes the sanitized original name with epoch milliseconds
	NameTimestamped FileNaming = iota
	// NameRandom uses a random id plus the original extension
	NameRandom
)

// BlobMeta describes who stored a blob and for what
type BlobMeta struct {
	UploaderID string
	TaskID     string
	Category   entity.AttachmentCategory
}

// AttachmentInfo describes a stored attachment without its content
type AttachmentInfo struct {
	Ref         entity.AttachmentRef
	Name        string
	ContentType string
	Size        int64
}

// FileContent is a fully read attachment
type FileContent struct {
	Name        string
	ContentType string
	Data        []byte
}

// AttachmentService stores and reads attachments on the local filesystem and in the blob store
type AttachmentService interface {
	Validate(u Upload) error
	ResolveFolder(existing ...entity.RefList) string
	StoreToFilesystem(ctx context.Context, folder string, u Upload, naming FileNaming) (string, error)
	StoreToBlob(ctx context.Context, u Upload, meta BlobMeta) (string, error)
	ReadBlob(ctx context.Context, id string) (*FileContent, error)
	Read(ctx context.Context, ref entity.AttachmentRef) (*FileContent, error)
	Stat(ctx context.Context, ref entity.AttachmentRef) (*AttachmentInfo, error)
	Open(ctx context.Context, ref entity.AttachmentRef) (io.ReadCloser, *AttachmentInfo, error)
	DeleteFile(ctx context.Context, raw string)
	DeleteBlob(ctx context.Context, id string)
	DeleteFolder(ctx context.Context, folder string)
}

type attachmentServiceImpl struct {
	files   port.FileStorage
	folders port.FolderManager
	blobs   port.BlobStore
	policy  AttachmentPolicy
	metrics port.Metrics
	logger  Logger
	now     func() time.Time
}

// NewAttachmentService creates a new AttachmentService.
// files is rooted at the public directory, folders at its uploads/tasks subdirectory.
func NewAttachmentService(
	files port.FileStorage,
	folders port.FolderManager,
	blobs port.BlobStore,
	policy AttachmentPolicy,
	metrics port.Metrics,
	logger Logger,
) AttachmentService {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &attachmentServiceImpl{
		files:   files,
		folders: folders,
		blobs:   blobs,
		policy:  policy,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Validate checks an upload against the attachment policy
func (s *attachmentServiceImpl) Validate(u Upload) error {
	return s.policy.Validate(u)
}

// ResolveFolder returns the folder of the first filesystem reference found, or a fresh folder name
func (s *attachmentServiceImpl) ResolveFolder(existing ...entity.RefList) string {
	for _, list := range existing {
		if folder := list.FirstFolder(); folder != "" {
			return folder
		}
	}
	return s.newFolderName()
}

// StoreToFilesystem writes an upload under the task folder and returns its public reference
func (s *attachmentServiceImpl) StoreToFilesystem(ctx context.Context, folder string, u Upload, naming FileNaming) (string, error) {
	folder = s.folders.SanitizeName(folder)
	if folder == "" {
		folder = s.newFolderName()
	}

	if _, err := s.folders.CreateFolder(ctx, folder); err != nil {
		s.metrics.AttachmentStored("filesystem", false)
		s.logger.Error("Failed to create upload folder", "error", err, "folder", folder)
		return "", &StorageError{Op: "create folder", Err: err}
	}

	ref := path.Join(TaskUploadsDir, folder, s.fileName(u.Filename, naming))
	if s.files.Exists(ctx, ref) {
		ref = path.Join(TaskUploadsDir, folder, s.fileName(u.Filename, NameRandom))
	}

	if err := s.files.Save(ctx, ref, u.Content); err != nil {
		s.metrics.AttachmentStored("filesystem", false)
		s.logger.Error("Failed to save file", "error", err, "path", ref)
		return "", &StorageError{Op: "save file", Err: err}
	}

	s.metrics.AttachmentStored("filesystem", true)
	s.logger.Info("File stored", "path", ref, "size", u.Size())
	return ref, nil
}

// StoreToBlob uploads to the blob store and returns the blob id
func (s *attachmentServiceImpl) StoreToBlob(ctx context.Context, u Upload, meta BlobMeta) (string, error) {
	contentType := contentTypeFor(u)
	metadata := map[string]string{
		port.BlobMetaOriginalName: u.Filename,
		port.BlobMetaContentType:  contentType,
		port.BlobMetaUploadedAt:   s.now().UTC().Format(time.RFC3339),
	}
	if meta.UploaderID != "" {
		metadata[port.BlobMetaUploaderID] = meta.UploaderID
	}
	if meta.TaskID != "" {
		metadata[port.BlobMetaTaskID] = meta.TaskID
	}
	if meta.Category != "" {
		metadata[port.BlobMetaCategory] = string(meta.Category)
	}

	id, err := s.blobs.Upload(ctx, u.Filename, contentType, u.Content, metadata)
	if err != nil {
		s.metrics.AttachmentStored("blob", false)
		s.logger.Error("Failed to upload blob", "error", err, "filename", u.Filename, "task_id", meta.TaskID)
		return "", &StorageError{Op: "upload blob", Err: err}
	}

	s.metrics.AttachmentStored("blob", true)
	s.logger.Info("Blob stored", "blob_id", id, "filename", u.Filename, "size", u.Size())
	return id, nil
}

// ReadBlob reads a blob with its original name and content type
func (s *attachmentServiceImpl) ReadBlob(ctx context.Context, id string) (*FileContent, error) {
	return s.Read(ctx, entity.AttachmentRef{Kind: entity.RefBlob, Value: id})
}

// Read loads a whole attachment into memory
func (s *attachmentServiceImpl) Read(ctx context.Context, ref entity.AttachmentRef) (*FileContent, error) {
	rc, info, err := s.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &StorageError{Op: "read attachment", Err: err}
	}

	return &FileContent{Name: info.Name, ContentType: info.ContentType, Data: data}, nil
}

// Stat resolves name, type and size of an attachment
func (s *attachmentServiceImpl) Stat(ctx context.Context, ref entity.AttachmentRef) (*AttachmentInfo, error) {
	if ref.IsBlob() {
		bi, err := s.blobs.Stat(ctx, ref.Value)
		if err != nil {
			return nil, s.blobError(err, ref.Value)
		}
		return blobAttachmentInfo(ref, bi), nil
	}

	rel, ok := uploadPath(ref.Value)
	if !ok {
		return nil, &NotFoundError{Resource: "file", ID: ref.Value}
	}
	size, err := s.files.Size(ctx, rel)
	if err != nil {
		return nil, fileError(err, ref.Value)
	}
	return pathAttachmentInfo(ref, rel, size), nil
}

// Open streams an attachment. The caller closes the reader.
func (s *attachmentServiceImpl) Open(ctx context.Context, ref entity.AttachmentRef) (io.ReadCloser, *AttachmentInfo, error) {
	if ref.IsBlob() {
		rc, bi, err := s.blobs.Open(ctx, ref.Value)
		if err != nil {
			return nil, nil, s.blobError(err, ref.Value)
		}
		return rc, blobAttachmentInfo(ref, bi), nil
	}

	rel, ok := uploadPath(ref.Value)
	if !ok {
		return nil, nil, &NotFoundError{Resource: "file", ID: ref.Value}
	}
	size, err := s.files.Size(ctx, rel)
	if err != nil {
		return nil, nil, fileError(err, ref.Value)
	}
	rc, err := s.files.Open(ctx, rel)
	if err != nil {
		return nil, nil, fileError(err, ref.Value)
	}
	return rc, pathAttachmentInfo(ref, rel, size), nil
}

// DeleteFile removes a filesystem attachment. Blob references are left untouched.
func (s *attachmentServiceImpl) DeleteFile(ctx context.Context, raw string) {
	ref := entity.ParseRef(raw)
	if ref.IsBlob() {
		return
	}
	rel, ok := uploadPath(ref.Value)
	if !ok {
		return
	}
	bestEffort(s.logger, "delete file", func() error {
		return s.files.Delete(ctx, rel)
	}, "path", rel)
}

// DeleteBlob removes a blob
func (s *attachmentServiceImpl) DeleteBlob(ctx context.Context, id string) {
	bestEffort(s.logger, "delete blob", func() error {
		err := s.blobs.Delete(ctx, id)
		if errors.Is(err, port.ErrBlobNotFound) {
			return nil
		}
		return err
	}, "blob_id", id)
}

// DeleteFolder removes a task upload folder with everything in it
func (s *attachmentServiceImpl) DeleteFolder(ctx context.Context, folder string) {
	if s.folders.SanitizeName(folder) == "" {
		return
	}
	bestEffort(s.logger, "delete folder", func() error {
		return s.folders.Delete(ctx, folder)
	}, "folder", folder)
}

func (s *attachmentServiceImpl) newFolderName() string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), uuid.NewString()[:8])
}

func (s *attachmentServiceImpl) fileName(original string, naming FileNaming) string {
	clean := utils.SanitizeFileName(original)
	if naming == NameTimestamped && clean != "" {
		return fmt.Sprintf("%d-%s", s.now().UnixMilli(), clean)
	}
	return uuid.NewString() + utils.FileExtension(original)
}

func (s *attachmentServiceImpl) blobError(err error, id string) error {
	if errors.Is(err, port.ErrBlobNotFound) {
		return &NotFoundError{Resource: "file", ID: id}
	}
	s.logger.Error("Blob store failure", "error", err, "blob_id", id)
	return &StorageError{Op: "read blob", Err: err}
}

func fileError(err error, ref string) error {
	if errors.Is(err, port.ErrFileNotFound) {
		return &NotFoundError{Resource: "file", ID: ref}
	}
	return &StorageError{Op: "read file", Err: err}
}

// uploadPath normalizes a filesystem reference to its root-relative form under /uploads
func uploadPath(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	clean := path.Clean(raw)
	if !strings.HasPrefix(clean, entity.UploadsPrefix) {
		return "", false
	}
	return clean, true
}

func contentTypeFor(u Upload) string {
	if mt := u.MediaType(); mt != "" {
		return mt
	}
	if ct := mime.TypeByExtension(utils.FileExtension(u.Filename)); ct != "" {
		return ct
	}
	return defaultContentType
}

func blobAttachmentInfo(ref entity.AttachmentRef, bi *port.BlobInfo) *AttachmentInfo {
	contentType := bi.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	return &AttachmentInfo{Ref: ref, Name: bi.Filename, ContentType: contentType, Size: bi.Length}
}

func pathAttachmentInfo(ref entity.AttachmentRef, rel string, size int64) *AttachmentInfo {
	name := path.Base(rel)
	contentType := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if contentType == "" {
		contentType = defaultContentType
	}
	return &AttachmentInfo{Ref: ref, Name: name, ContentType: contentType, Size: size}
}
