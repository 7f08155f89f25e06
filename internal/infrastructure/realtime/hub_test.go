package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/event"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_PublishFansOut(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	a := hub.Subscribe()
	b := hub.Subscribe()
	require.Equal(t, 2, hub.ClientCount())

	evt := event.NewEvent(event.TypeTaskAssigned, "t1", nil)
	require.NoError(t, hub.Publish(context.Background(), evt))

	assert.Equal(t, evt, <-a.Events)
	assert.Equal(t, evt, <-b.Events)
}

func TestHub_SlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	sub := hub.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			_ = hub.Publish(context.Background(), event.NewEvent(event.TypeTaskUpdated, "t1", nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full client")
	}
	assert.Len(t, sub.Events, 1)
}

func TestHub_UnsubscribeAndClose(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	a := hub.Subscribe()
	b := hub.Subscribe()

	hub.Unsubscribe(a.ID)
	_, open := <-a.Events
	assert.False(t, open)
	assert.Equal(t, 1, hub.ClientCount())

	// unknown id is ignored
	hub.Unsubscribe(999)

	hub.Close()
	_, open = <-b.Events
	assert.False(t, open)

	late := hub.Subscribe()
	_, open = <-late.Events
	assert.False(t, open, "subscriptions after close are closed immediately")
}

func TestDecodeEvent(t *testing.T) {
	evt := event.NewEvent(event.TypeTaskUnposted, "t1", map[string]interface{}{event.KeyNewStatus: "completed"})
	data, err := json.Marshal(evt)
	require.NoError(t, err)

	got, err := decodeEvent(string(data))
	require.NoError(t, err)
	assert.Equal(t, evt.ID, got.ID)
	assert.Equal(t, "completed", got.GetPayloadString(event.KeyNewStatus))

	_, err = decodeEvent(`{"type":"bogus"}`)
	assert.Error(t, err)
	_, err = decodeEvent(`not json`)
	assert.Error(t, err)
}

// Requires a running Redis, e.g. REDIS_TEST_ADDR=localhost:6379
func TestRedisRelay_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis relay test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	hub := NewHub(4, zap.NewNop())
	relay := NewRedisRelay(client, "test:"+time.Now().Format("150405.000000"), hub, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, relay.Start(ctx))
	defer relay.Stop()

	sub := hub.Subscribe()
	evt := event.NewEvent(event.TypeTaskCreated, "t1", nil)
	require.NoError(t, relay.Publish(ctx, evt))

	select {
	case got := <-sub.Events:
		assert.Equal(t, evt.ID, got.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("relayed event not received")
	}
}
