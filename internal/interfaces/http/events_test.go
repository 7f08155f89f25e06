package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/realtime"
)

func TestStreamEvents(t *testing.T) {
	hub := realtime.NewHub(4, zap.NewNop())
	ts := newTestServer(t, func(cfg *ServerConfig, deps *Dependencies) {
		deps.Events = hub
		cfg.Heartbeat = time.Hour
	})

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		ts.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	evt := event.NewEvent(event.TypeTaskAssigned, "t1", map[string]interface{}{event.KeyNewStatus: "assigned"})
	require.NoError(t, hub.Publish(context.Background(), evt))
	hub.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the hub closed")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, "event:task.assigned")
	assert.Contains(t, body, `"task_id":"t1"`)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestStreamEvents_ClientDisconnect(t *testing.T) {
	hub := realtime.NewHub(4, zap.NewNop())
	defer hub.Close()
	ts := newTestServer(t, func(cfg *ServerConfig, deps *Dependencies) {
		deps.Events = hub
		cfg.Heartbeat = 10 * time.Millisecond
	})

	ctx, cancel := context.WithCancel(context.Background())
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
		ts.server.Router().ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	assert.Contains(t, rec.Body.String(), "event:heartbeat")
	assert.Equal(t, 0, hub.ClientCount(), "disconnect unsubscribes the client")
}

func TestStreamEvents_Unavailable(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
