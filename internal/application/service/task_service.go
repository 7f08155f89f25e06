package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// EventPublisher hands task events to subscribers without blocking the request
type EventPublisher interface {
	DispatchAsync(ctx context.Context, evt *event.Event)
}

// History triggers for mutations outside the lifecycle table
const (
	TriggerCreate = "CREATE"
	TriggerDelete = "DELETE"
)

// TaskService runs task mutations: validation, lifecycle checks, attachment storage and persistence
type TaskService interface {
	Create(ctx context.Context, in CreateTaskInput) (*entity.Task, error)
	Get(ctx context.Context, id string) (*entity.Task, error)
	List(ctx context.Context, filter port.TaskFilter) ([]*entity.Task, error)
	UpdateGeneral(ctx context.Context, id string, in GeneralEditInput) (*entity.Task, error)
	Assign(ctx context.Context, in AssignInput) (*entity.Task, error)
	ReviewCompletion(ctx context.Context, id string, in CompletionInput) (*entity.Task, error)
	DeveloperUpdate(ctx context.Context, id string, in DeveloperInput) (*entity.Task, error)
	Unpost(ctx context.Context, id string, in UnpostInput) (*entity.Task, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]*entity.TaskHistory, error)
}

type taskServiceImpl struct {
	tasks       port.TaskRepository
	companies   port.CompanyRepository
	users       port.UserRepository
	history     port.HistoryRepository
	attachments AttachmentService
	lifecycle   *workflow.TaskLifecycle
	events      EventPublisher
	logger      Logger
	now         func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	tasks port.TaskRepository,
	companies port.CompanyRepository,
	users port.UserRepository,
	history port.HistoryRepository,
	attachments AttachmentService,
	lifecycle *workflow.TaskLifecycle,
	events EventPublisher,
	logger Logger,
) TaskService {
	return &taskServiceImpl{
		tasks:       tasks,
		companies:   companies,
		users:       users,
		history:     history,
		attachments: attachments,
		lifecycle:   lifecycle,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// Create stores a new pending task with its initial filesystem attachments
func (s *taskServiceImpl) Create(ctx context.Context, in CreateTaskInput) (*entity.Task, error) {
	if strings.TrimSpace(in.CompanyID) == "" {
		return nil, &ValidationError{Field: entity.FieldCompany, Message: "company is required"}
	}
	if strings.TrimSpace(in.Working) == "" {
		return nil, &ValidationError{Field: entity.FieldWorking, Message: "working is required"}
	}
	priority, err := normalizePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.validateUploads(AttachmentChange{Files: in.Files}); err != nil {
		return nil, err
	}

	company, err := s.findCompany(ctx, in.CompanyID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	code := strings.TrimSpace(in.Code)
	if code == "" {
		code = fmt.Sprintf("T-%d", now.UnixMilli())
	}

	task := &entity.Task{
		Code:            code,
		Company:         company.Snapshot(),
		Contact:         in.Contact,
		Working:         in.Working,
		DateTime:        in.DateTime,
		Priority:        priority,
		Status:          entity.StatusPending,
		TaskRemarks:     in.TaskRemarks,
		TasksAttachment: entity.RefList{},
	}

	stored := &storedSet{}
	if len(in.Files) > 0 {
		folder := s.attachments.ResolveFolder()
		paths, err := s.storeFilesystem(ctx, folder, in.Files, NameTimestamped, stored)
		if err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		task.TasksAttachment = entity.MergeRefs(paths)
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.rollback(ctx, stored)
		s.logger.Error("Failed to create task", "error", err, "code", code)
		return nil, &PersistenceError{Err: err}
	}

	s.logger.Info("Task created", "task_id", task.IDHex(), "code", task.Code, "files", len(stored.paths))
	s.publish(ctx, event.TypeTaskCreated, task, in.Actor, map[string]interface{}{
		event.KeyTrigger:    TriggerCreate,
		event.KeyNewStatus:  task.Status,
		event.KeyFilesAdded: len(stored.paths),
	})
	return task, nil
}

// Get returns one task
func (s *taskServiceImpl) Get(ctx context.Context, id string) (*entity.Task, error) {
	return s.findTask(ctx, id)
}

// List returns tasks matching filter, newest first
func (s *taskServiceImpl) List(ctx context.Context, filter port.TaskFilter) ([]*entity.Task, error) {
	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list tasks", "error", err)
		return nil, &PersistenceError{Err: err}
	}
	return tasks, nil
}

// UpdateGeneral applies a general edit. New files go to the task folder on the filesystem.
func (s *taskServiceImpl) UpdateGeneral(ctx context.Context, id string, in GeneralEditInput) (*entity.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateUploads(in.Attachments); err != nil {
		return nil, err
	}

	update := entity.TaskUpdate{}
	tr := workflow.Transition{From: currentState(task), To: currentState(task)}
	if in.Status != nil {
		tr, err = s.moveTo(task.Status, *in.Status)
		if err != nil {
			return nil, err
		}
		update.Set(entity.FieldStatus, string(tr.To))
	}
	if err := s.applyGeneralFields(ctx, &in, update); err != nil {
		return nil, err
	}

	stored := &storedSet{}
	if in.Attachments.Touched() {
		base := in.Attachments.base(task.TasksAttachment)
		folder := s.attachments.ResolveFolder(base, task.AllAttachments())
		paths, err := s.storeFilesystem(ctx, folder, in.Attachments.Files, NameTimestamped, stored)
		if err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		update.Set(entity.FieldTasksAttachment, entity.MergeRefs(base, paths))
	}

	updated, err := s.persist(ctx, id, update)
	if err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	s.logger.Info("Task updated", "task_id", id, "fields", len(update), "status", updated.Status)
	s.publish(ctx, event.TypeTaskUpdated, updated, in.Actor, transitionPayload(tr, map[string]interface{}{
		event.KeyFilesAdded: len(stored.paths),
	}))
	return updated, nil
}

// Assign hands a task to a user. Invalid or failing files are skipped, not fatal.
func (s *taskServiceImpl) Assign(ctx context.Context, in AssignInput) (*entity.Task, error) {
	task, err := s.findTask(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.UserID) == "" {
		return nil, &ValidationError{Field: entity.FieldAssignedTo, Message: "assignedTo is required"}
	}

	tr, err := s.fire(task.Status, workflow.TriggerAssign)
	if err != nil {
		return nil, err
	}

	user, err := s.findUser(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	softwareType := task.SoftwareType
	if !task.Company.ID.IsZero() {
		company, err := s.companies.FindByID(ctx, task.Company.ID.Hex())
		if err != nil {
			s.logger.Error("Company lookup failed, keeping software type", "error", err, "task_id", in.TaskID)
		} else {
			softwareType = company.SoftwareType
		}
	}

	stored := &storedSet{}
	meta := BlobMeta{UploaderID: in.Actor, TaskID: in.TaskID, Category: entity.CategoryAssignment}
	for _, u := range in.Attachments.Files {
		if err := s.attachments.Validate(u); err != nil {
			s.logger.Error("Skipping assignment file", "error", err, "task_id", in.TaskID, "filename", u.Filename)
			continue
		}
		id, err := s.attachments.StoreToBlob(ctx, u, meta)
		if err != nil {
			s.logger.Error("Skipping assignment file", "error", err, "task_id", in.TaskID, "filename", u.Filename)
			continue
		}
		stored.blobs = append(stored.blobs, id)
	}

	now := s.now()
	snapshot := user.Snapshot()
	update := entity.TaskUpdate{
		entity.FieldAssigned:             true,
		entity.FieldApproved:             true,
		entity.FieldAssignedTo:           snapshot,
		entity.FieldAssignedDate:         now,
		entity.FieldApprovedAt:           now,
		entity.FieldStatus:               string(tr.To),
		entity.FieldSoftwareType:         softwareType,
		entity.FieldAssignmentRemarks:    in.Remarks,
		entity.FieldAssignmentAttachment: entity.MergeRefs(in.Attachments.base(task.AssignmentAttachment), stored.blobs),
	}

	updated, err := s.persist(ctx, in.TaskID, update)
	if err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	s.logger.Info("Task assigned", "task_id", in.TaskID, "user_id", in.UserID, "files", len(stored.blobs))
	s.publish(ctx, event.TypeTaskAssigned, updated, in.Actor, transitionPayload(tr, map[string]interface{}{
		event.KeyFilesAdded: len(stored.blobs),
	}))
	return updated, nil
}

// ReviewCompletion records the reviewer's verdict. The final status decides the new
// status and whether remarks and files land in the completion or rejection fields.
func (s *taskServiceImpl) ReviewCompletion(ctx context.Context, id string, in CompletionInput) (*entity.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	finalStatus := strings.TrimSpace(in.FinalStatus)
	if finalStatus == "" {
		return nil, &ValidationError{Field: entity.FieldFinalStatus, Message: "finalStatus is required when completionApproved is set"}
	}
	trigger, ok := completionTrigger(finalStatus)
	if !ok {
		return nil, &ValidationError{Field: entity.FieldFinalStatus, Message: fmt.Sprintf("unsupported final status %q", finalStatus)}
	}
	if err := s.validateUploads(in.Attachments); err != nil {
		return nil, err
	}

	tr, err := s.fire(task.Status, trigger)
	if err != nil {
		return nil, err
	}

	category, remarksField := entity.CategoryCompletion, entity.FieldCompletionRemarks
	if finalStatus == entity.FinalStatusRejected {
		category, remarksField = entity.CategoryRejection, entity.FieldRejectionRemarks
	}

	stored := &storedSet{}
	meta := BlobMeta{UploaderID: in.Actor, TaskID: id, Category: category}
	if err := s.storeBlobs(ctx, in.Attachments.Files, meta, stored); err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	now := s.now()
	update := entity.TaskUpdate{
		entity.FieldCompletionApproved:   in.CompletionApproved,
		entity.FieldCompletionApprovedAt: now,
		entity.FieldFinalStatus:          finalStatus,
		entity.FieldStatus:               string(tr.To),
	}
	if in.Remarks != "" {
		update.Set(remarksField, in.Remarks)
	}
	if in.Attachments.Touched() {
		field, _ := entity.AttachmentField(category)
		update.Set(field, entity.MergeRefs(in.Attachments.base(task.Attachments(category)), stored.blobs))
	}
	if finalStatus == entity.FinalStatusDone && task.AssignedDate != nil {
		update.Set(entity.FieldTimeTaken, now.Sub(*task.AssignedDate).Milliseconds())
	}

	updated, err := s.persist(ctx, id, update)
	if err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	s.logger.Info("Completion reviewed", "task_id", id, "final_status", finalStatus, "status", updated.Status)
	s.publish(ctx, event.TypeCompletionReviewed, updated, in.Actor, transitionPayload(tr, map[string]interface{}{
		event.KeyFilesAdded: len(stored.blobs),
		event.KeyCategory:   string(category),
	}))
	return updated, nil
}

// DeveloperUpdate records fix-cycle progress. Marking a rejected task fixed moves it back in progress.
func (s *taskServiceImpl) DeveloperUpdate(ctx context.Context, id string, in DeveloperInput) (*entity.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateUploads(in.Attachments, in.SolutionAttachments); err != nil {
		return nil, err
	}

	update := entity.TaskUpdate{}
	tr := workflow.Transition{From: currentState(task), To: currentState(task)}
	if in.StatusRejection != nil && *in.StatusRejection == entity.DeveloperRejectionFixed &&
		task.Status == entity.StatusRejected {
		tr, err = s.fire(task.Status, workflow.TriggerStartFix)
		if err != nil {
			return nil, err
		}
		update.Set(entity.FieldStatus, string(tr.To))
	}

	setString(update, entity.FieldDeveloperStatus, in.Status)
	setString(update, entity.FieldDeveloperRemarks, in.Remarks)
	setString(update, entity.FieldDeveloperStatusRejection, in.StatusRejection)
	setString(update, entity.FieldDeveloperRejectionRemarks, in.RejectionRemarks)
	if in.DoneDate != nil {
		update.Set(entity.FieldDeveloperDoneDate, *in.DoneDate)
	}

	stored := &storedSet{}
	for _, c := range []struct {
		category entity.AttachmentCategory
		change   AttachmentChange
	}{
		{entity.CategoryDeveloper, in.Attachments},
		{entity.CategoryDeveloperSolution, in.SolutionAttachments},
	} {
		if !c.change.Touched() {
			continue
		}
		before := len(stored.blobs)
		meta := BlobMeta{UploaderID: in.Actor, TaskID: id, Category: c.category}
		if err := s.storeBlobs(ctx, c.change.Files, meta, stored); err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		field, _ := entity.AttachmentField(c.category)
		update.Set(field, entity.MergeRefs(c.change.base(task.Attachments(c.category)), stored.blobs[before:]))
	}

	if len(update) == 0 {
		return task, nil
	}

	updated, err := s.persist(ctx, id, update)
	if err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	s.logger.Info("Developer update applied", "task_id", id, "status", updated.Status)
	s.publish(ctx, event.TypeDeveloperUpdated, updated, in.Actor, transitionPayload(tr, map[string]interface{}{
		event.KeyFilesAdded: len(stored.blobs),
	}))
	return updated, nil
}

// Unpost applies a post-completion correction across every field group. Filesystem
// references dropped from a category are deleted; dropped blobs are kept.
func (s *taskServiceImpl) Unpost(ctx context.Context, id string, in UnpostInput) (*entity.Task, error) {
	task, err := s.findTask(ctx, id)
	if err != nil {
		return nil, err
	}

	categories := []struct {
		category entity.AttachmentCategory
		change   AttachmentChange
	}{
		{entity.CategoryTask, in.Attachments},
		{entity.CategoryAssignment, in.AssignmentAttachments},
		{entity.CategoryCompletion, in.CompletionAttachments},
		{entity.CategoryDeveloper, in.DeveloperAttachments},
	}
	for _, c := range categories {
		if err := s.validateUploads(c.change); err != nil {
			return nil, err
		}
	}

	tr := workflow.Transition{From: currentState(task), To: currentState(task)}
	if !task.Unposted {
		tr, err = s.fire(task.Status, workflow.TriggerUnpost)
		if err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		moved, err := s.moveTo(string(tr.To), *in.Status)
		if err != nil {
			return nil, err
		}
		if moved.Changed() {
			tr = workflow.Transition{From: tr.From, To: moved.To, Trigger: moved.Trigger}
		}
	}

	update := entity.TaskUpdate{}
	if err := s.applyGeneralFields(ctx, &in.GeneralEditInput, update); err != nil {
		return nil, err
	}
	if tr.Changed() {
		update.Set(entity.FieldStatus, string(tr.To))
	}
	setString(update, entity.FieldAssignmentRemarks, in.AssignmentRemarks)
	setString(update, entity.FieldCompletionRemarks, in.CompletionRemarks)
	setString(update, entity.FieldRejectionRemarks, in.RejectionRemarks)
	setString(update, entity.FieldFinalStatus, in.FinalStatus)
	setString(update, entity.FieldDeveloperStatus, in.DeveloperStatus)
	setString(update, entity.FieldDeveloperRemarks, in.DeveloperRemarks)
	setString(update, entity.FieldDeveloperStatusRejection, in.DeveloperStatusRejection)
	setString(update, entity.FieldDeveloperRejectionRemarks, in.DeveloperRejectionRemarks)
	if in.DeveloperDoneDate != nil {
		update.Set(entity.FieldDeveloperDoneDate, *in.DeveloperDoneDate)
	}

	now := s.now()
	update.Set(entity.FieldUnposted, true)
	update.Set(entity.FieldUnpostStatus, entity.UnpostStatusUnposted)
	update.Set(entity.FieldUnpostedAt, now)

	stored := &storedSet{}
	var orphans entity.RefList
	after := *task
	folder := ""
	for _, c := range categories {
		if !c.change.Touched() {
			continue
		}
		current := task.Attachments(c.category)
		base := c.change.base(current)
		if folder == "" && len(c.change.Files) > 0 {
			folder = s.attachments.ResolveFolder(base, task.AllAttachments())
		}
		paths, err := s.storeFilesystem(ctx, folder, c.change.Files, NameRandom, stored)
		if err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		merged := entity.MergeRefs(base, paths)
		field, _ := entity.AttachmentField(c.category)
		update.Set(field, merged)
		after.SetAttachments(c.category, merged)
		orphans = append(orphans, current.Without(merged)...)
	}
	// a reference moved to another category is still in use
	orphans = entity.MergeRefs(orphans).Without(after.AllAttachments())

	updated, err := s.persist(ctx, id, update)
	if err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	removed := 0
	for _, ref := range orphans.Refs() {
		if ref.IsBlob() {
			s.logger.Info("Keeping blob dropped from task", "task_id", id, "blob_id", ref.Value)
			continue
		}
		s.attachments.DeleteFile(ctx, ref.Value)
		removed++
	}

	s.logger.Info("Task unposted", "task_id", id, "status", updated.Status, "files_added", len(stored.paths), "files_removed", removed)
	s.publish(ctx, event.TypeTaskUnposted, updated, in.Actor, transitionPayload(tr, map[string]interface{}{
		event.KeyFilesAdded:   len(stored.paths),
		event.KeyFilesRemoved: removed,
	}))
	return updated, nil
}

// Delete removes a task and the upload folders its filesystem references live in.
// Blob attachments are not removed.
func (s *taskServiceImpl) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &NotFoundError{Resource: "task"}
	}

	task, err := s.tasks.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return &NotFoundError{Resource: "task", ID: id}
		}
		s.logger.Error("Failed to delete task", "error", err, "task_id", id)
		return &PersistenceError{Err: err}
	}

	folders := make(map[string]bool)
	for _, ref := range task.AllAttachments().Refs() {
		if ref.IsBlob() {
			continue
		}
		if folder := ref.Folder(); folder != "" {
			folders[folder] = true
			continue
		}
		s.attachments.DeleteFile(ctx, ref.Value)
	}
	for folder := range folders {
		s.attachments.DeleteFolder(ctx, folder)
	}

	s.logger.Info("Task deleted", "task_id", id, "folders", len(folders))
	s.publish(ctx, event.TypeTaskDeleted, task, "", map[string]interface{}{
		event.KeyTrigger:        TriggerDelete,
		event.KeyPreviousStatus: task.Status,
	})
	return nil
}

// History returns the recorded transitions of a task, oldest first
func (s *taskServiceImpl) History(ctx context.Context, id string) ([]*entity.TaskHistory, error) {
	if _, err := s.findTask(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.history.GetByTaskID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to load history", "error", err, "task_id", id)
		return nil, &PersistenceError{Err: err}
	}
	return history, nil
}

// applyGeneralFields copies the edit fields shared by general edit and unpost into update
func (s *taskServiceImpl) applyGeneralFields(ctx context.Context, in *GeneralEditInput, update entity.TaskUpdate) error {
	setString(update, entity.FieldCode, in.Code)
	setString(update, entity.FieldWorking, in.Working)
	setString(update, entity.FieldTaskRemarks, in.TaskRemarks)

	if in.Priority != nil {
		priority, err := normalizePriority(*in.Priority)
		if err != nil {
			return err
		}
		update.Set(entity.FieldPriority, priority)
	}
	if in.Contact != nil {
		update.Set(entity.FieldContact, *in.Contact)
	}
	if in.DateTime != nil {
		update.Set(entity.FieldDateTime, *in.DateTime)
	}
	if in.Assigned != nil {
		update.Set(entity.FieldAssigned, *in.Assigned)
	}
	if in.Approved != nil {
		update.Set(entity.FieldApproved, *in.Approved)
	}
	if in.CompanyID != nil {
		company, err := s.findCompany(ctx, *in.CompanyID)
		if err != nil {
			return err
		}
		update.Set(entity.FieldCompany, company.Snapshot())
	}
	if in.AssignedToID != nil {
		user, err := s.findUser(ctx, *in.AssignedToID)
		if err != nil {
			return err
		}
		update.Set(entity.FieldAssignedTo, user.Snapshot())
	}
	return nil
}

func (s *taskServiceImpl) validateUploads(changes ...AttachmentChange) error {
	for _, c := range changes {
		for _, u := range c.Files {
			if err := s.attachments.Validate(u); err != nil {
				return err
			}
		}
	}
	return nil
}

// storedSet tracks what a request wrote so a failed request can undo it
type storedSet struct {
	paths []string
	blobs []string
}

func (s *taskServiceImpl) storeFilesystem(ctx context.Context, folder string, files []Upload, naming FileNaming, stored *storedSet) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, u := range files {
		ref, err := s.attachments.StoreToFilesystem(ctx, folder, u, naming)
		if err != nil {
			return nil, err
		}
		paths = append(paths, ref)
		stored.paths = append(stored.paths, ref)
	}
	return paths, nil
}

func (s *taskServiceImpl) storeBlobs(ctx context.Context, files []Upload, meta BlobMeta, stored *storedSet) error {
	for _, u := range files {
		id, err := s.attachments.StoreToBlob(ctx, u, meta)
		if err != nil {
			return err
		}
		stored.blobs = append(stored.blobs, id)
	}
	return nil
}

func (s *taskServiceImpl) rollback(ctx context.Context, stored *storedSet) {
	for _, p := range stored.paths {
		s.attachments.DeleteFile(ctx, p)
	}
	for _, id := range stored.blobs {
		s.attachments.DeleteBlob(ctx, id)
	}
}

func (s *taskServiceImpl) findTask(ctx context.Context, id string) (*entity.Task, error) {
	return findTask(ctx, s.tasks, s.logger, id)
}

func findTask(ctx context.Context, tasks port.TaskRepository, logger Logger, id string) (*entity.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &NotFoundError{Resource: "task"}
	}
	task, err := tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: id}
		}
		logger.Error("Failed to get task", "error", err, "task_id", id)
		return nil, &PersistenceError{Err: err}
	}
	return task, nil
}

func (s *taskServiceImpl) findCompany(ctx context.Context, id string) (*entity.Company, error) {
	company, err := s.companies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, &NotFoundError{Resource: "company", ID: id}
		}
		return nil, &PersistenceError{Err: err}
	}
	return company, nil
}

func (s *taskServiceImpl) findUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, &NotFoundError{Resource: "user", ID: id}
		}
		return nil, &PersistenceError{Err: err}
	}
	return user, nil
}

func (s *taskServiceImpl) persist(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	updated, err := s.tasks.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, &NotFoundError{Resource: "task", ID: id}
		}
		s.logger.Error("Failed to update task", "error", err, "task_id", id)
		return nil, &PersistenceError{Err: err}
	}
	return updated, nil
}

func (s *taskServiceImpl) fire(from string, trigger workflow.Trigger) (workflow.Transition, error) {
	tr, err := s.lifecycle.Fire(workflow.State(from), trigger)
	if err != nil {
		return workflow.Transition{}, &ValidationError{Field: entity.FieldStatus, Message: err.Error()}
	}
	return tr, nil
}

func (s *taskServiceImpl) moveTo(from, to string) (workflow.Transition, error) {
	tr, err := s.lifecycle.MoveTo(workflow.State(from), workflow.State(strings.TrimSpace(to)))
	if err != nil {
		return workflow.Transition{}, &ValidationError{Field: entity.FieldStatus, Message: err.Error()}
	}
	return tr, nil
}

func (s *taskServiceImpl) publish(ctx context.Context, typ event.Type, task *entity.Task, actor string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	payload[event.KeyActor] = actor
	payload[event.KeyTaskCode] = task.Code
	s.events.DispatchAsync(ctx, event.NewEvent(typ, task.IDHex(), payload))
}

func transitionPayload(tr workflow.Transition, extra map[string]interface{}) map[string]interface{} {
	payload := map[string]interface{}{
		event.KeyPreviousStatus: string(tr.From),
		event.KeyNewStatus:      string(tr.To),
	}
	if tr.Trigger != "" {
		payload[event.KeyTrigger] = string(tr.Trigger)
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

func currentState(task *entity.Task) workflow.State {
	if task.Status == "" {
		return workflow.StatePending
	}
	return workflow.State(task.Status)
}

func completionTrigger(finalStatus string) (workflow.Trigger, bool) {
	switch finalStatus {
	case entity.FinalStatusDone:
		return workflow.TriggerComplete, true
	case entity.FinalStatusRejected:
		return workflow.TriggerReject, true
	case entity.FinalStatusOnHold:
		return workflow.TriggerHold, true
	case entity.FinalStatusNotDone, entity.FinalStatusInProgress:
		return workflow.TriggerStartFix, true
	}
	return "", false
}

func normalizePriority(p string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "":
		return entity.PriorityNormal, nil
	case "urgent":
		return entity.PriorityUrgent, nil
	case "high":
		return entity.PriorityHigh, nil
	case "normal":
		return entity.PriorityNormal, nil
	}
	return "", &ValidationError{Field: entity.FieldPriority, Message: fmt.Sprintf("unsupported priority %q", p)}
}

func setString(update entity.TaskUpdate, field string, v *string) {
	if v != nil {
		update.Set(field, *v)
	}
}
