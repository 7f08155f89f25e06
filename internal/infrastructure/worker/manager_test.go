package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWorker struct {
	name     string
	startErr error
	stopErr  error
	log      *[]string
}

func (w *fakeWorker) Name() string { return w.name }

func (w *fakeWorker) Start(ctx context.Context) error {
	if w.startErr != nil {
		return w.startErr
	}
	*w.log = append(*w.log, "start:"+w.name)
	return nil
}

func (w *fakeWorker) Stop() error {
	*w.log = append(*w.log, "stop:"+w.name)
	return w.stopErr
}

func statesOf(statuses []Status) map[string]State {
	out := make(map[string]State, len(statuses))
	for _, s := range statuses {
		out[s.Name] = s.State
	}
	return out
}

func TestWorkerManager_Lifecycle(t *testing.T) {
	var log []string
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", log: &log})
	m.Register(&fakeWorker{name: "b", log: &log})

	assert.False(t, m.Healthy(), "not started")
	assert.Equal(t, map[string]State{"a": StateRegistered, "b": StateRegistered}, statesOf(m.Statuses()))

	require.NoError(t, m.StartAll(context.Background()))
	assert.True(t, m.IsRunning())
	assert.True(t, m.Healthy())
	assert.Equal(t, 2, m.GetWorkerCount())
	assert.Error(t, m.StartAll(context.Background()))

	for _, s := range m.Statuses() {
		assert.Equal(t, StateRunning, s.State)
		assert.False(t, s.StartedAt.IsZero())
	}

	require.NoError(t, m.StopAll())
	assert.False(t, m.IsRunning())
	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, log)
	assert.Equal(t, map[string]State{"a": StateStopped, "b": StateStopped}, statesOf(m.Statuses()))

	// stopping twice is harmless
	assert.NoError(t, m.StopAll())
}

func TestWorkerManager_FailedStartIsReported(t *testing.T) {
	var log []string
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "relay", startErr: errors.New("dial tcp: connection refused"), log: &log})
	m.Register(&fakeWorker{name: "other", log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	assert.False(t, m.Healthy())

	statuses := m.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, StateFailed, statuses[0].State)
	assert.Contains(t, statuses[0].Error, "connection refused")
	assert.Equal(t, StateRunning, statuses[1].State)

	require.NoError(t, m.StopAll())
	assert.Equal(t, []string{"start:other", "stop:other"}, log, "a failed worker is never stopped")
}

func TestWorkerManager_StopErrors(t *testing.T) {
	var log []string
	m := NewWorkerManager(zap.NewNop())
	m.Register(&fakeWorker{name: "a", stopErr: errors.New("stuck"), log: &log})
	m.Register(&fakeWorker{name: "b", log: &log})

	require.NoError(t, m.StartAll(context.Background()))
	err := m.StopAll()
	require.Error(t, err)
	assert.Equal(t, "failed to stop workers: a", err.Error())
	assert.Equal(t, map[string]State{"a": StateFailed, "b": StateStopped}, statesOf(m.Statuses()))
}
