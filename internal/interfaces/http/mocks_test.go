package http

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockTaskService struct {
	mock.Mock
}

func taskResult(args mock.Arguments) (*entity.Task, error) {
	task, _ := args.Get(0).(*entity.Task)
	return task, args.Error(1)
}

func (m *mockTaskService) Create(ctx context.Context, in service.CreateTaskInput) (*entity.Task, error) {
	return taskResult(m.Called(ctx, in))
}

func (m *mockTaskService) Get(ctx context.Context, id string) (*entity.Task, error) {
	return taskResult(m.Called(ctx, id))
}

func (m *mockTaskService) List(ctx context.Context, filter port.TaskFilter) ([]*entity.Task, error) {
	args := m.Called(ctx, filter)
	tasks, _ := args.Get(0).([]*entity.Task)
	return tasks, args.Error(1)
}

func (m *mockTaskService) UpdateGeneral(ctx context.Context, id string, in service.GeneralEditInput) (*entity.Task, error) {
	return taskResult(m.Called(ctx, id, in))
}

func (m *mockTaskService) Assign(ctx context.Context, in service.AssignInput) (*entity.Task, error) {
	return taskResult(m.Called(ctx, in))
}

func (m *mockTaskService) ReviewCompletion(ctx context.Context, id string, in service.CompletionInput) (*entity.Task, error) {
	return taskResult(m.Called(ctx, id, in))
}

func (m *mockTaskService) DeveloperUpdate(ctx context.Context, id string, in service.DeveloperInput) (*entity.Task, error) {
	return taskResult(m.Called(ctx, id, in))
}

func (m *mockTaskService) Unpost(ctx context.Context, id string, in service.UnpostInput) (*entity.Task, error) {
	return taskResult(m.Called(ctx, id, in))
}

func (m *mockTaskService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTaskService) History(ctx context.Context, id string) ([]*entity.TaskHistory, error) {
	args := m.Called(ctx, id)
	entries, _ := args.Get(0).([]*entity.TaskHistory)
	return entries, args.Error(1)
}

type mockDownloadService struct {
	mock.Mock
}

func (m *mockDownloadService) DownloadFile(ctx context.Context, taskID, fileID string) (*service.FileContent, error) {
	args := m.Called(ctx, taskID, fileID)
	content, _ := args.Get(0).(*service.FileContent)
	return content, args.Error(1)
}

func (m *mockDownloadService) ReadBlob(ctx context.Context, id string) (*service.FileContent, error) {
	args := m.Called(ctx, id)
	content, _ := args.Get(0).(*service.FileContent)
	return content, args.Error(1)
}

func (m *mockDownloadService) PackageCategory(ctx context.Context, taskID string, category entity.AttachmentCategory) (*service.Archive, error) {
	args := m.Called(ctx, taskID, category)
	archive, _ := args.Get(0).(*service.Archive)
	return archive, args.Error(1)
}

func (m *mockDownloadService) PackageBulk(ctx context.Context, taskID string, selected []string) (*service.Archive, error) {
	args := m.Called(ctx, taskID, selected)
	archive, _ := args.Get(0).(*service.Archive)
	return archive, args.Error(1)
}

type mockReportService struct {
	mock.Mock
}

func (m *mockReportService) ExportTasks(ctx context.Context, filter port.TaskFilter, w io.Writer) (int, error) {
	args := m.Called(ctx, filter, w)
	return args.Int(0), args.Error(1)
}

type testServer struct {
	server    *Server
	tasks     *mockTaskService
	downloads *mockDownloadService
	reports   *mockReportService
}

func newTestServer(t *testing.T, configure ...func(*ServerConfig, *Dependencies)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		tasks:     &mockTaskService{},
		downloads: &mockDownloadService{},
		reports:   &mockReportService{},
	}
	cfg := DefaultServerConfig()
	cfg.PublicDir = t.TempDir()
	deps := Dependencies{
		Tasks:     ts.tasks,
		Downloads: ts.downloads,
		Reports:   ts.reports,
	}
	for _, fn := range configure {
		fn(&cfg, &deps)
	}

	ts.server = NewServer(cfg, deps, nopLogger{})
	t.Cleanup(func() {
		ts.tasks.AssertExpectations(t)
		ts.downloads.AssertExpectations(t)
		ts.reports.AssertExpectations(t)
	})
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

type filePart struct {
	field       string
	filename    string
	contentType string
	content     string
}

// multipartRequest builds a multipart request from repeated text fields and files
func multipartRequest(t *testing.T, method, target string, fields [][2]string, files ...filePart) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, kv := range fields {
		require.NoError(t, w.WriteField(kv[0], kv[1]))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}
