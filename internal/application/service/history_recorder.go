package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/dispatcher"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
)

// HistoryRecorder writes task_history rows for task events that carry a trigger
type HistoryRecorder struct {
	history   port.HistoryRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewHistoryRecorder creates a new HistoryRecorder
func NewHistoryRecorder(history port.HistoryRepository, txManager port.TransactionManager, logger Logger) *HistoryRecorder {
	return &HistoryRecorder{history: history, txManager: txManager, logger: logger}
}

// Register subscribes the recorder to every task event
func (r *HistoryRecorder) Register(d dispatcher.Dispatcher) {
	d.SubscribeMany(dispatcher.AllTaskEvents, "history-recorder", r.Handle)
}

// Handle records one event. Events without a trigger are ignored.
func (r *HistoryRecorder) Handle(ctx context.Context, evt *event.Event) error {
	trigger := evt.GetPayloadString(event.KeyTrigger)
	if trigger == "" {
		return nil
	}

	history := &entity.TaskHistory{
		TaskID:         evt.TaskID,
		Trigger:        trigger,
		PreviousStatus: evt.GetPayloadString(event.KeyPreviousStatus),
		NewStatus:      evt.GetPayloadString(event.KeyNewStatus),
		Actor:          evt.GetPayloadString(event.KeyActor),
		Details:        historyDetails(evt),
		Timestamp:      evt.Timestamp,
	}

	err := r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := r.history.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		if err := r.history.TouchActivity(txCtx, evt.TaskID, history.NewStatus, evt.Timestamp); err != nil {
			return fmt.Errorf("touch activity: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to record history", "error", err, "task_id", evt.TaskID, "trigger", trigger)
		return err
	}
	return nil
}

func historyDetails(evt *event.Event) string {
	details := map[string]interface{}{"event": evt.Type.String()}
	for _, key := range []string{event.KeyTaskCode, event.KeyFilesAdded, event.KeyFilesRemoved, event.KeyCategory} {
		if v, ok := evt.Payload[key]; ok {
			details[key] = v
		}
	}
	data, err := json.Marshal(details)
	if err != nil {
		return evt.Type.String()
	}
	return string(data)
}

// NewBroadcastHandler forwards events to live subscribers. Delivery failures are logged only.
func NewBroadcastHandler(b port.Broadcaster, logger Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if err := b.Publish(ctx, evt); err != nil {
			logger.Error("Failed to broadcast event", "error", err, "event_type", evt.Type.String(), "task_id", evt.TaskID)
		}
		return nil
	}
}

// RegisterBroadcaster subscribes b to task and packaging events
func RegisterBroadcaster(d dispatcher.Dispatcher, b port.Broadcaster, logger Logger) {
	types := append([]event.Type{event.TypeAttachmentsPackaged}, dispatcher.AllTaskEvents...)
	d.SubscribeMany(types, "broadcaster", NewBroadcastHandler(b, logger))
}
