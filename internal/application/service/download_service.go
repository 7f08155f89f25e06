package service

import (
	"context"
	"strings"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
)

// bulkArchiveCategory labels archives built from a selection across categories
const bulkArchiveCategory entity.AttachmentCategory = "selected"

// DownloadService serves single attachments and zipped attachment sets
type DownloadService interface {
	DownloadFile(ctx context.Context, taskID, fileID string) (*FileContent, error)
	ReadBlob(ctx context.Context, id string) (*FileContent, error)
	PackageCategory(ctx context.Context, taskID string, category entity.AttachmentCategory) (*Archive, error)
	PackageBulk(ctx context.Context, taskID string, selected []string) (*Archive, error)
}

type downloadServiceImpl struct {
	tasks       port.TaskRepository
	attachments AttachmentService
	sequential  *ArchivePackager
	bulk        *ArchivePackager
	events      EventPublisher
	logger      Logger
}

// NewDownloadService creates a new DownloadService
func NewDownloadService(
	tasks port.TaskRepository,
	attachments AttachmentService,
	sequential *ArchivePackager,
	bulk *ArchivePackager,
	events EventPublisher,
	logger Logger,
) DownloadService {
	return &downloadServiceImpl{
		tasks:       tasks,
		attachments: attachments,
		sequential:  sequential,
		bulk:        bulk,
		events:      events,
		logger:      logger,
	}
}

// DownloadFile returns one attachment of a task. The file must be referenced by the task.
func (s *downloadServiceImpl) DownloadFile(ctx context.Context, taskID, fileID string) (*FileContent, error) {
	task, err := findTask(ctx, s.tasks, s.logger, taskID)
	if err != nil {
		return nil, err
	}

	fileID = strings.TrimSpace(fileID)
	if fileID == "" || !task.AllAttachments().Contains(fileID) {
		return nil, &NotFoundError{Resource: "file", ID: fileID}
	}

	return s.attachments.Read(ctx, entity.ParseRef(fileID))
}

// ReadBlob returns a blob by id
func (s *downloadServiceImpl) ReadBlob(ctx context.Context, id string) (*FileContent, error) {
	if !entity.ParseRef(id).IsBlob() {
		return nil, &NotFoundError{Resource: "file", ID: id}
	}
	return s.attachments.ReadBlob(ctx, id)
}

// PackageCategory zips one attachment category of a task with the guarded strategy
func (s *downloadServiceImpl) PackageCategory(ctx context.Context, taskID string, category entity.AttachmentCategory) (*Archive, error) {
	if _, ok := entity.AttachmentField(category); !ok {
		return nil, &ValidationError{Field: "category", Message: "unknown attachment category " + string(category)}
	}

	task, err := findTask(ctx, s.tasks, s.logger, taskID)
	if err != nil {
		return nil, err
	}

	archive, err := s.sequential.Package(ctx, task.ArchiveName(category), task.Attachments(category).Refs())
	if err != nil {
		return nil, err
	}

	s.announce(ctx, task, category, archive)
	return archive, nil
}

// PackageBulk zips the selected references of a task, or all of them when none are selected.
// Selected references the task does not hold are ignored.
func (s *downloadServiceImpl) PackageBulk(ctx context.Context, taskID string, selected []string) (*Archive, error) {
	task, err := findTask(ctx, s.tasks, s.logger, taskID)
	if err != nil {
		return nil, err
	}

	all := task.AllAttachments()
	refs := entity.MergeRefs(all)
	if len(selected) > 0 {
		refs = entity.RefList{}
		for _, raw := range entity.NormalizeRefs(selected) {
			if !all.Contains(raw) {
				s.logger.Info("Ignoring reference not held by task", "task_id", taskID, "ref", raw)
				continue
			}
			refs = append(refs, raw)
		}
	}

	archive, err := s.bulk.Package(ctx, task.ArchiveName(bulkArchiveCategory), refs.Refs())
	if err != nil {
		return nil, err
	}

	s.announce(ctx, task, bulkArchiveCategory, archive)
	return archive, nil
}

func (s *downloadServiceImpl) announce(ctx context.Context, task *entity.Task, category entity.AttachmentCategory, archive *Archive) {
	if s.events == nil {
		return
	}
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeAttachmentsPackaged, task.IDHex(), map[string]interface{}{
		event.KeyCategory:     string(category),
		event.KeyTaskCode:     task.Code,
		event.KeyFilesAdded:   len(archive.Entries),
		event.KeyFilesRemoved: len(archive.Skipped),
	}))
}
