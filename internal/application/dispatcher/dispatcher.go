package dispatcher

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
)

const (
	defaultShards    = 4
	defaultQueueSize = 256
)

// Dispatcher routes task events to registered handlers.
// Async events for the same task are delivered in publish order.
type Dispatcher interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name used in logs
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// SubscribeMany registers one named handler for several event types
	SubscribeMany(eventTypes []event.Type, name string, handler Handler)

	// Dispatch runs handlers in registration order and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync queues the event on its task's lane and returns
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Pending returns the number of queued async events
	Pending() int

	// Close stops accepting events and drains the queues
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type queuedEvent struct {
	ctx      context.Context
	evt      *event.Event
	handlers []HandlerInfo
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	shardCount int
	queueSize  int
	lanes      []chan queuedEvent
	pending    atomic.Int64

	// held for reading while enqueuing so Close never closes a lane mid-send
	laneMu sync.RWMutex
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithShards sets how many task lanes process async events in parallel
func WithShards(n int) Option {
	return func(d *eventDispatcher) {
		if n > 0 {
			d.shardCount = n
		}
	}
}

// WithQueueSize sets the buffer of each lane. A full lane blocks DispatchAsync.
func WithQueueSize(n int) Option {
	return func(d *eventDispatcher) {
		if n >= 0 {
			d.queueSize = n
		}
	}
}

// NewDispatcher creates a dispatcher and starts its lanes
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers:   make(map[event.Type][]HandlerInfo),
		shardCount: defaultShards,
		queueSize:  defaultQueueSize,
	}

	for _, opt := range opts {
		opt(d)
	}

	d.lanes = make([]chan queuedEvent, d.shardCount)
	for i := range d.lanes {
		d.lanes[i] = make(chan queuedEvent, d.queueSize)
		d.wg.Add(1)
		go d.runLane(d.lanes[i])
	}

	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("handler-%d", len(d.handlers[eventType]))
	d.mu.RUnlock()
	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	d.mu.Unlock()

	d.logInfo("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) SubscribeMany(eventTypes []event.Type, name string, handler Handler) {
	for _, t := range eventTypes {
		d.SubscribeNamed(t, name, handler)
	}
}

func (d *eventDispatcher) snapshot(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo(nil), d.handlers[eventType]...)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return fmt.Errorf("dispatcher is closed")
	}
	return d.run(ctx, evt, d.snapshot(evt.Type), true)
}

// DispatchAsync runs handlers detached from the caller's cancellation
func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	handlers := d.snapshot(evt.Type)
	if len(handlers) == 0 {
		return
	}

	d.laneMu.RLock()
	defer d.laneMu.RUnlock()

	if d.closed.Load() {
		d.logError("Dropping event, dispatcher is closed",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"task_id", evt.TaskID,
		)
		return
	}

	d.pending.Add(1)
	d.lanes[d.laneFor(evt.TaskID)] <- queuedEvent{
		ctx:      context.WithoutCancel(ctx),
		evt:      evt,
		handlers: handlers,
	}
}

func (d *eventDispatcher) runLane(lane <-chan queuedEvent) {
	defer d.wg.Done()
	for q := range lane {
		// failures are logged inside run; later handlers still see the event
		_ = d.run(q.ctx, q.evt, q.handlers, false)
		d.pending.Add(-1)
	}
}

// run executes handlers in order. With stopOnError the first failure is returned.
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, handlers []HandlerInfo, stopOnError bool) error {
	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			d.logError("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"task_id", evt.TaskID,
				"handler_name", info.Name,
				"error", err,
			)
			if stopOnError {
				return fmt.Errorf("handler %s failed: %w", info.Name, err)
			}
		}
	}
	return nil
}

func (d *eventDispatcher) laneFor(taskID string) int {
	if len(d.lanes) == 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.lanes)))
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	handlers := d.snapshot(eventType)
	for i := range handlers {
		handlers[i].Handler = nil
	}
	return handlers
}

func (d *eventDispatcher) Pending() int {
	return int(d.pending.Load())
}

func (d *eventDispatcher) Close() error {
	d.laneMu.Lock()
	if !d.closed.CompareAndSwap(false, true) {
		d.laneMu.Unlock()
		return fmt.Errorf("dispatcher already closed")
	}
	for _, lane := range d.lanes {
		close(lane)
	}
	d.laneMu.Unlock()

	d.wg.Wait()
	d.logInfo("Dispatcher closed")
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
