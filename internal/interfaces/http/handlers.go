package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/realtime"
)

// ActorHeader carries the id of the user performing a request, recorded in task history
const ActorHeader = "X-User-Id"

// EventSource hands out event streams for connected clients
type EventSource interface {
	Subscribe() realtime.Subscription
	Unsubscribe(id uint64)
}

// HealthFunc reports overall health plus per-component details
type HealthFunc func(ctx context.Context) (bool, interface{})

// Handlers contains all HTTP request handlers
type Handlers struct {
	tasks       service.TaskService
	downloads   service.DownloadService
	reports     service.ReportService
	events      EventSource
	health      HealthFunc
	heartbeat   time.Duration
	uploadLimit int64
	logger      Logger
}

// ListTasksRequest represents query parameters for listing tasks
type ListTasksRequest struct {
	Status   string `form:"status"`
	Assigned *bool  `form:"assigned"`
	Unposted *bool  `form:"unposted"`
	From     string `form:"from"`
	To       string `form:"to"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Components interface{} `json:"components,omitempty"`
}

func actor(c *gin.Context) string {
	return c.GetHeader(ActorHeader)
}

func (h *Handlers) form(c *gin.Context) (*formData, bool) {
	f, err := parseForm(c, h.uploadLimit)
	if err != nil {
		h.writeError(c, err)
		return nil, false
	}
	return f, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	healthy, components := true, interface{}(nil)
	if h.health != nil {
		healthy, components = h.health(c.Request.Context())
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, Response{
		Success: healthy,
		Data: HealthResponse{
			Status:     status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Components: components,
		},
	})
}

// CreateTask handles POST /tasks
func (h *Handlers) CreateTask(c *gin.Context) {
	f, ok := h.form(c)
	if !ok {
		return
	}
	in, err := f.create(actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks handles GET /tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	var req ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.writeError(c, &service.ValidationError{Field: "query", Message: err.Error()})
		return
	}

	filter := port.TaskFilter{
		Status:   req.Status,
		Assigned: req.Assigned,
		Unposted: req.Unposted,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if err := parseRange(req.From, req.To, &filter); err != nil {
		h.writeError(c, err)
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask handles GET /tasks/:id
func (h *Handlers) GetTask(c *gin.Context) {
	task, err := h.tasks.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/:id. A completionApproved field makes it a completion
// review; anything else is a general edit.
func (h *Handlers) UpdateTask(c *gin.Context) {
	f, ok := h.form(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if f.has(entity.FieldCompletionApproved) {
		in, err := f.completion(actor(c))
		if err != nil {
			h.writeError(c, err)
			return
		}
		task, err := h.tasks.ReviewCompletion(c.Request.Context(), id, in)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, task)
		return
	}

	in, err := f.generalEdit(actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	task, err := h.tasks.UpdateGeneral(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:id
func (h *Handlers) DeleteTask(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// AssignTask handles PUT /tasks/assign
func (h *Handlers) AssignTask(c *gin.Context) {
	f, ok := h.form(c)
	if !ok {
		return
	}
	in, err := f.assignment(actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	task, err := h.tasks.Assign(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UnpostTask handles PUT /tasks/unpost/:id
func (h *Handlers) UnpostTask(c *gin.Context) {
	f, ok := h.form(c)
	if !ok {
		return
	}
	in, err := f.unpost(actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	task, err := h.tasks.Unpost(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeveloperUpdate handles PUT /tasks/developer/:id
func (h *Handlers) DeveloperUpdate(c *gin.Context) {
	f, ok := h.form(c)
	if !ok {
		return
	}
	in, err := f.developer(actor(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	task, err := h.tasks.DeveloperUpdate(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// TaskHistory handles GET /tasks/:id/history
func (h *Handlers) TaskHistory(c *gin.Context) {
	entries, err := h.tasks.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func parseRange(from, to string, filter *port.TaskFilter) error {
	if from != "" {
		t, err := parseDate(from)
		if err != nil {
			return &service.ValidationError{Field: "from", Message: err.Error()}
		}
		filter.From = &t
	}
	if to != "" {
		t, err := parseDate(to)
		if err != nil {
			return &service.ValidationError{Field: "to", Message: err.Error()}
		}
		filter.To = &t
	}
	return nil
}
