package dispatcher

import (
	"context"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
)

// Handler processes task events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler. Handler is nil in ListHandlers results.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// AllTaskEvents lists every event type emitted by task mutations
var AllTaskEvents = []event.Type{
	event.TypeTaskCreated,
	event.TypeTaskUpdated,
	event.TypeTaskAssigned,
	event.TypeCompletionReviewed,
	event.TypeDeveloperUpdated,
	event.TypeTaskUnposted,
	event.TypeTaskDeleted,
}
