package realtime

import (
	"context"
	"sync"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
	"go.uber.org/zap"
)

const defaultClientBuffer = 16

// Subscription is one connected stream client
type Subscription struct {
	ID     uint64
	Events <-chan *event.Event
}

// Hub fans task events out to connected server-sent-event clients in this process.
// Slow clients whose buffer is full miss events rather than blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]chan *event.Event
	nextID  uint64
	buffer  int
	closed  bool
	logger  *zap.Logger
}

// NewHub creates a hub with a per-client buffer
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	return &Hub{
		clients: make(map[uint64]chan *event.Event),
		buffer:  buffer,
		logger:  logger,
	}
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (h *Hub) Subscribe() Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	ch := make(chan *event.Event, h.buffer)
	if h.closed {
		close(ch)
	} else {
		h.clients[h.nextID] = ch
	}
	return Subscription{ID: h.nextID, Events: ch}
}

// Unsubscribe removes a client
func (h *Hub) Unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(ch)
	}
}

// Publish delivers evt to every client without blocking
func (h *Hub) Publish(ctx context.Context, evt *event.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.clients {
		select {
		case ch <- evt:
		default:
			h.logger.Warn("Dropping event for slow client",
				zap.Uint64("client_id", id),
				zap.String("event_type", evt.Type.String()))
		}
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.clients {
		delete(h.clients, id)
		close(ch)
	}
}

var _ port.Broadcaster = (*Hub)(nil)
