package worker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker is a long-running background component such as the realtime relay
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}

// State of a registered worker
type State string

const (
	StateRegistered State = "registered"
	StateRunning    State = "running"
	StateFailed     State = "failed"
	StateStopped    State = "stopped"
)

// Status reports one worker for health checks
type Status struct {
	Name      string    `json:"name"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

type entry struct {
	worker Worker
	status Status
}

// WorkerManager starts workers in registration order and stops them in reverse.
// A worker that fails to start is recorded as failed and the rest keep running.
type WorkerManager struct {
	entries []*entry
	logger  *zap.Logger

	mu        sync.RWMutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewWorkerManager creates a new worker manager
func NewWorkerManager(logger *zap.Logger) *WorkerManager {
	return &WorkerManager{logger: logger}
}

// Register adds a worker. Workers registered after StartAll wait for the next start.
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, &entry{
		worker: w,
		status: Status{Name: w.Name(), State: StateRegistered},
	})
	m.logger.Info("Worker registered",
		zap.String("worker_name", w.Name()),
		zap.Int("total_workers", len(m.entries)))
}

// StartAll starts every registered worker
func (m *WorkerManager) StartAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning {
		return fmt.Errorf("workers already running")
	}

	var runCtx context.Context
	runCtx, m.cancel = context.WithCancel(ctx)
	m.isRunning = true

	for _, e := range m.entries {
		if err := e.worker.Start(runCtx); err != nil {
			e.status = Status{Name: e.status.Name, State: StateFailed, Error: err.Error()}
			m.logger.Error("Failed to start worker",
				zap.String("worker_name", e.status.Name),
				zap.Error(err))
			continue
		}
		e.status = Status{Name: e.status.Name, State: StateRunning, StartedAt: time.Now()}
		m.logger.Info("Worker started", zap.String("worker_name", e.status.Name))
	}

	return nil
}

// StopAll stops running workers in reverse start order
func (m *WorkerManager) StopAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return nil
	}
	m.isRunning = false

	if m.cancel != nil {
		m.cancel()
	}

	var failed []string
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.status.State != StateRunning {
			continue
		}
		if err := e.worker.Stop(); err != nil {
			e.status.State = StateFailed
			e.status.Error = err.Error()
			m.logger.Error("Failed to stop worker",
				zap.String("worker_name", e.status.Name),
				zap.Error(err))
			failed = append(failed, e.status.Name)
			continue
		}
		e.status.State = StateStopped
		m.logger.Info("Worker stopped", zap.String("worker_name", e.status.Name))
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to stop workers: %s", strings.Join(failed, ", "))
	}
	return nil
}

// Statuses returns a snapshot of every registered worker
func (m *WorkerManager) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Status, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.status
	}
	return out
}

// Healthy reports whether the manager is running and no worker has failed
func (m *WorkerManager) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.isRunning {
		return false
	}
	for _, e := range m.entries {
		if e.status.State == StateFailed {
			return false
		}
	}
	return true
}

// GetWorkerCount returns the number of registered workers
func (m *WorkerManager) GetWorkerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// IsRunning returns whether workers are running
func (m *WorkerManager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isRunning
}
