package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHeartbeat = 25 * time.Second

// StreamEvents handles GET /events as a server-sent event stream. Every task event
// is written with its type as the event name; idle connections get a heartbeat.
func (h *Handlers) StreamEvents(c *gin.Context) {
	if h.events == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{Success: false, Error: "event stream unavailable"})
		return
	}

	sub := h.events.Subscribe()
	defer h.events.Unsubscribe(sub.ID)

	// the server write timeout would otherwise cut long-lived streams
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	heartbeat := h.heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	c.SSEvent("ready", gin.H{"client_id": sub.ID})
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			c.SSEvent(evt.Type.String(), evt)
		case t := <-ticker.C:
			c.SSEvent("heartbeat", t.UTC().Format(time.RFC3339))
		}
		c.Writer.Flush()
	}
}
