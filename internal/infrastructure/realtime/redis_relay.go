package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel carrying task events between instances
const DefaultChannel = "daily-activity:task-events"

// RedisRelay publishes task events to a Redis channel and forwards every
// message received on it to the local hub, so clients of all instances see them.
// It runs as a background worker.
type RedisRelay struct {
	client  *redis.Client
	channel string
	hub     *Hub
	logger  *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisRelay creates a relay bound to hub
func NewRedisRelay(client *redis.Client, channel string, hub *Hub, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisRelay{
		client:  client,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

// Name implements worker.Worker
func (r *RedisRelay) Name() string {
	return "redis-relay"
}

// Start subscribes to the channel and begins forwarding
func (r *RedisRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pubsub != nil {
		return fmt.Errorf("relay already started")
	}

	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	r.pubsub = pubsub
	r.done = make(chan struct{})
	go r.forward(ctx, pubsub.Channel(), r.done)

	r.logger.Info("Redis relay subscribed", zap.String("channel", r.channel))
	return nil
}

func (r *RedisRelay) forward(ctx context.Context, messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)

	for msg := range messages {
		evt, err := decodeEvent(msg.Payload)
		if err != nil {
			r.logger.Error("Discarding malformed relay message", zap.Error(err))
			continue
		}
		_ = r.hub.Publish(ctx, evt)
	}
}

// Stop closes the subscription and waits for the forwarder to exit
func (r *RedisRelay) Stop() error {
	r.mu.Lock()
	pubsub, done := r.pubsub, r.done
	r.pubsub = nil
	r.mu.Unlock()

	if pubsub == nil {
		return nil
	}
	err := pubsub.Close()
	<-done
	return err
}

// Publish sends evt to every instance. When Redis is unreachable the event
// is still delivered to local clients and the error is returned.
func (r *RedisRelay) Publish(ctx context.Context, evt *event.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		_ = r.hub.Publish(ctx, evt)
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

func decodeEvent(payload string) (*event.Event, error) {
	var evt event.Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		return nil, err
	}
	if !evt.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", evt.Type)
	}
	return &evt, nil
}

var _ port.Broadcaster = (*RedisRelay)(nil)
