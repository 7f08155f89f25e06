package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/workflow"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/storage"
)

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// fakeTaskRepo keeps tasks in memory and applies updates through a bson round trip
type fakeTaskRepo struct {
	mu        sync.Mutex
	tasks     map[string]*entity.Task
	updateErr error
	updates   []entity.TaskUpdate
}

func newFakeTaskRepo(tasks ...*entity.Task) *fakeTaskRepo {
	r := &fakeTaskRepo{tasks: make(map[string]*entity.Task)}
	for _, t := range tasks {
		if t.ID.IsZero() {
			t.ID = primitive.NewObjectID()
		}
		r.tasks[t.ID.Hex()] = t
	}
	return r
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *entity.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = primitive.NewObjectID()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID.Hex()] = task
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	t, ok := r.tasks[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	r.updates = append(r.updates, update)

	raw, err := bson.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range update {
		doc[k] = v
	}
	doc[entity.FieldUpdatedAt] = time.Now()

	raw, err = bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var updated entity.Task
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return nil, err
	}
	r.tasks[id] = &updated
	cp := updated
	return &cp, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id string) (*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	delete(r.tasks, id)
	return t, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, filter port.TaskFilter) ([]*entity.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Task
	for _, t := range r.tasks {
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeTaskRepo) lastUpdate() entity.TaskUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.updates) == 0 {
		return nil
	}
	return r.updates[len(r.updates)-1]
}

type mockCompanyRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*entity.Company, error)
}

func (m *mockCompanyRepo) FindByID(ctx context.Context, id string) (*entity.Company, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, port.ErrNotFound
	}
	return &entity.Company{ID: oid, Name: "Acme", City: "Lahore", SoftwareType: "ERP"}, nil
}

type mockUserRepo struct {
	findByIDFunc func(ctx context.Context, id string) (*entity.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, port.ErrNotFound
	}
	return &entity.User{ID: oid, Username: "dev1", Name: "Dev One", Role: entity.RoleRef{Name: "developer"}}, nil
}

type mockHistoryRepo struct {
	mu      sync.Mutex
	entries []*entity.TaskHistory
	touched map[string]int

	createFunc func(ctx context.Context, h *entity.TaskHistory) error
}

func (m *mockHistoryRepo) Create(ctx context.Context, h *entity.TaskHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, h)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	h.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, h)
	return nil
}

func (m *mockHistoryRepo) GetByTaskID(ctx context.Context, taskID string) ([]*entity.TaskHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*entity.TaskHistory{}
	for _, h := range m.entries {
		if h.TaskID == taskID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *mockHistoryRepo) TouchActivity(ctx context.Context, taskID, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.touched == nil {
		m.touched = make(map[string]int)
	}
	m.touched[taskID]++
	return nil
}

func (m *mockHistoryRepo) GetActivity(ctx context.Context, taskID string) (*entity.TaskActivity, error) {
	return nil, port.ErrNotFound
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// fakeBlobStore keeps blobs in memory under generated object ids
type fakeBlobStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	infos     map[string]*port.BlobInfo
	uploadErr error
	deleted   []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte), infos: make(map[string]*port.BlobInfo)}
}

func (f *fakeBlobStore) Upload(ctx context.Context, name, contentType string, content []byte, metadata map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	id := primitive.NewObjectID().Hex()
	f.blobs[id] = append([]byte(nil), content...)
	f.infos[id] = &port.BlobInfo{
		ID:          id,
		Filename:    name,
		ContentType: contentType,
		Length:      int64(len(content)),
		Metadata:    metadata,
		UploadedAt:  time.Now(),
	}
	return id, nil
}

func (f *fakeBlobStore) Stat(ctx context.Context, id string) (*port.BlobInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[id]
	if !ok {
		return nil, port.ErrBlobNotFound
	}
	cp := *info
	return &cp, nil
}

func (f *fakeBlobStore) Open(ctx context.Context, id string) (io.ReadCloser, *port.BlobInfo, error) {
	info, err := f.Stat(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return io.NopCloser(bytes.NewReader(f.blobs[id])), info, nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[id]; !ok {
		return port.ErrBlobNotFound
	}
	delete(f.blobs, id)
	delete(f.infos, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBlobStore) Ping(ctx context.Context) error {
	return nil
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (p *recordingPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) last() *event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

// testEnv wires the task service over real local storage in a temp dir
type testEnv struct {
	publicDir   string
	tasks       *fakeTaskRepo
	blobs       *fakeBlobStore
	history     *mockHistoryRepo
	companies   *mockCompanyRepo
	users       *mockUserRepo
	events      *recordingPublisher
	files       port.FileStorage
	attachments AttachmentService
	svc         *taskServiceImpl
}

func newTestEnv(t *testing.T, tasks ...*entity.Task) *testEnv {
	t.Helper()

	publicDir := t.TempDir()
	logger := zap.NewNop()
	files := storage.NewLocalFileStorage(publicDir, logger)
	folders := storage.NewLocalFolderManager(filepath.Join(publicDir, "uploads", "tasks"), logger)

	env := &testEnv{
		publicDir: publicDir,
		tasks:     newFakeTaskRepo(tasks...),
		blobs:     newFakeBlobStore(),
		history:   &mockHistoryRepo{},
		companies: &mockCompanyRepo{},
		users:     &mockUserRepo{},
		events:    &recordingPublisher{},
		files:     files,
	}
	env.attachments = NewAttachmentService(files, folders, env.blobs, DefaultAttachmentPolicy(), nil, &mockLogger{})
	env.svc = NewTaskService(
		env.tasks,
		env.companies,
		env.users,
		env.history,
		env.attachments,
		workflow.NewTaskLifecycle(),
		env.events,
		&mockLogger{},
	).(*taskServiceImpl)
	return env
}

func pdfUpload(field, name string) Upload {
	return Upload{Field: field, Filename: name, ContentType: "application/pdf", Content: []byte("%PDF-1.4 " + name)}
}

func refList(values ...string) *entity.RefList {
	l := entity.RefList(values)
	return &l
}

func strPtr(s string) *string {
	return &s
}

var errBoom = errors.New("boom")
