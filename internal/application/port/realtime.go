package port

import (
	"context"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
)

// Broadcaster pushes task events to connected clients
type Broadcaster interface {
	Publish(ctx context.Context, evt *event.Event) error
}

// Metrics records operational counters. Implementations must be safe for concurrent use.
type Metrics interface {
	AttachmentStored(backend string, ok bool)
	ArchiveBuilt(mode, outcome string)
}

// NopMetrics discards all observations
type NopMetrics struct{}

func (NopMetrics) AttachmentStored(string, bool) {}
func (NopMetrics) ArchiveBuilt(string, string)  {}
