package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/dispatcher"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/worker"
	httpapi "github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/interfaces/http"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/utils"
)

const healthTimeout = 3 * time.Second

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure
	documents *DocumentStoreBundle
	history   *HistoryBundle
	storage   *StorageBundle
	realtime  *RealtimeBundle
	metrics   *httpapi.Metrics

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Document store
// 2. History database
// 3. File and blob storage
// 4. Dispatcher, metrics and realtime fan-out
// 5. Application services
// 6. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Connect to MongoDB
	documents, err := ProvideDocumentStore(c.ctx, &c.config.MongoDB, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize document store: %w", err)
	}
	c.documents = documents
	c.logger.Info("Document store initialized")

	// Step 2: Open the history database
	history, err := ProvideHistory(c.ctx, &c.config.History, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize history database: %w", err)
	}
	c.history = history
	c.logger.Info("History database initialized")

	// Step 3: Initialize storage
	store, err := ProvideStorage(c.ctx, &c.config.Storage, c.documents.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.storage = store
	c.logger.Info("Storage initialized", zap.String("blob_driver", c.config.Storage.BlobDriver))

	// Step 4: Dispatcher, metrics and realtime
	if err := c.initEventing(); err != nil {
		return fmt.Errorf("failed to initialize eventing: %w", err)
	}
	c.logger.Info("Dispatcher and realtime initialized")

	// Step 5: Initialize application services
	services, err := ProvideServices(&ServiceDeps{
		Documents:  c.documents,
		History:    c.history,
		Storage:    c.storage,
		Dispatcher: c.dispatcher,
		Metrics:    c.metrics,
		Policy:     c.config.Attachments,
		Archive:    c.config.Archive,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.services = services
	c.logger.Info("Application services initialized")

	// Step 6: Start workers
	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("worker_count", c.workers.GetWorkerCount()))

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

func (c *Container) initEventing() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp
	c.metrics = httpapi.NewMetrics()
	c.workers = worker.NewWorkerManager(c.logger)

	rt, err := ProvideRealtime(&c.config.Realtime, c.workers, c.logger)
	if err != nil {
		return err
	}
	c.realtime = rt

	service.RegisterBroadcaster(c.dispatcher, rt.Broadcaster, utils.NewKeyValueLogger(c.logger))
	return nil
}

// Close gracefully shuts down all components in reverse order.
// It is safe to call after a failed Start.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Cancel context to signal all goroutines
	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop workers (reverse of step 6)
	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Step 2: Drain the dispatcher so pending history writes land (reverse of step 4)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.realtime != nil {
		c.realtime.Hub.Close()
		if c.realtime.Redis != nil {
			if err := c.realtime.Redis.Close(); err != nil {
				c.logger.Error("Failed to close redis client", zap.Error(err))
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}
		c.logger.Info("Realtime closed")
	}

	// Step 3: Storage holds no resources of its own (reverse of step 3)

	// Step 4: Close history database (reverse of step 2)
	if c.history != nil {
		if err := c.history.DB.Close(); err != nil {
			c.logger.Error("Failed to close history database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close history database: %w", err))
		} else {
			c.logger.Info("History database closed")
		}
	}

	// Step 5: Disconnect MongoDB (reverse of step 1)
	if c.documents != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.documents.Client.Disconnect(ctx); err != nil {
			c.logger.Error("Failed to disconnect mongodb", zap.Error(err))
			errs = append(errs, fmt.Errorf("disconnect mongodb: %w", err))
		} else {
			c.logger.Info("MongoDB disconnected")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, err error, initialized bool) {
		switch {
		case !initialized:
			status.Components[name] = ComponentHealth{Healthy: false, Message: "not initialized"}
			status.Overall = false
		case err != nil:
			status.Components[name] = ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)}
			status.Overall = false
		default:
			status.Components[name] = ComponentHealth{Healthy: true}
		}
	}

	// Check MongoDB
	if c.documents != nil {
		set("mongodb", c.documents.Client.Ping(ctx, readpref.Primary()), true)
	} else {
		set("mongodb", nil, false)
	}

	// Check history database
	if c.history != nil {
		set("history", c.history.DB.PingContext(ctx), true)
	} else {
		set("history", nil, false)
	}

	// Check blob store
	if c.storage != nil {
		set("blob_store", c.storage.BlobStore.Ping(ctx), true)
	} else {
		set("blob_store", nil, false)
	}

	// Check workers
	if c.workers != nil {
		healthy := c.workers.Healthy()
		msg := fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount())
		for _, w := range c.workers.Statuses() {
			if w.State == worker.StateFailed {
				msg += fmt.Sprintf("; %s failed: %s", w.Name, w.Error)
			}
		}
		status.Components["workers"] = ComponentHealth{Healthy: healthy, Message: msg}
		if !healthy {
			status.Overall = false
		}
	} else {
		set("workers", nil, false)
	}

	// Check dispatcher backlog
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("pending events: %d", c.dispatcher.Pending()),
		}
	} else {
		set("dispatcher", nil, false)
	}

	// Check realtime
	if c.realtime != nil {
		status.Components["realtime"] = ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("clients: %d", c.realtime.Hub.ClientCount()),
		}
	} else {
		set("realtime", nil, false)
	}

	return status
}

// HealthCheck adapts Health to the HTTP adapter's health hook.
func (c *Container) HealthCheck(ctx context.Context) (bool, interface{}) {
	status := c.Health(ctx)
	return status.Overall, status.Components
}

// HTTPDependencies returns what the HTTP server needs to serve routes.
func (c *Container) HTTPDependencies() httpapi.Dependencies {
	c.mu.RLock()
	defer c.mu.RUnlock()

	deps := httpapi.Dependencies{
		Health:  c.HealthCheck,
		Metrics: c.metrics,
	}
	if c.services != nil {
		deps.Tasks = c.services.Tasks
		deps.Downloads = c.services.Downloads
		deps.Reports = c.services.Reports
	}
	if c.realtime != nil {
		deps.Events = c.realtime.Hub
	}
	return deps
}

// Getters for accessing container components

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Metrics returns the Prometheus collectors.
func (c *Container) Metrics() *httpapi.Metrics {
	return c.metrics
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
