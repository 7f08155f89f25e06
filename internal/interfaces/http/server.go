// Package http provides the HTTP adapter of the task tracker.
// Handlers translate requests into application service calls and service errors into status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PublicDir holds the uploads tree served under /uploads
	PublicDir string

	// MaxUploadBytes bounds how much of each uploaded file is read
	MaxUploadBytes int64

	// MultipartMemory is the part of a multipart body kept in memory before spilling to disk
	MultipartMemory int64

	// Heartbeat is the idle interval between event stream heartbeats
	Heartbeat time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		PublicDir:       "public",
		MaxUploadBytes:  service.DefaultMaxFileBytes,
		MultipartMemory: 32 << 20,
		Heartbeat:       defaultHeartbeat,
	}
}

// Dependencies are the application services and adapters the routes call into
type Dependencies struct {
	Tasks     service.TaskService
	Downloads service.DownloadService
	Reports   service.ReportService
	Events    EventSource
	Health    HealthFunc
	Metrics   *Metrics
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if config.MultipartMemory > 0 {
		router.MaxMultipartMemory = config.MultipartMemory
	}

	server := &Server{
		config: config,
		router: router,
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	if s.deps.Metrics != nil {
		s.router.Use(s.deps.Metrics.Middleware())
	}
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := &Handlers{
		tasks:       s.deps.Tasks,
		downloads:   s.deps.Downloads,
		reports:     s.deps.Reports,
		events:      s.deps.Events,
		health:      s.deps.Health,
		heartbeat:   s.config.Heartbeat,
		uploadLimit: s.config.MaxUploadBytes,
		logger:      s.logger,
	}

	s.router.GET("/health", handlers.HealthCheck)
	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}
	if s.config.PublicDir != "" {
		s.router.Static("/uploads", filepath.Join(s.config.PublicDir, "uploads"))
	}

	s.router.GET("/events", handlers.StreamEvents)
	s.router.GET("/attachments/blob/:id", handlers.DownloadBlob)

	tasks := s.router.Group("/tasks")
	{
		tasks.POST("", handlers.CreateTask)
		tasks.GET("", handlers.ListTasks)
		tasks.GET("/report.xlsx", handlers.ExportReport)

		tasks.PUT("/assign", handlers.AssignTask)
		tasks.GET("/assign", handlers.DownloadAssignment)
		tasks.PUT("/unpost/:id", handlers.UnpostTask)
		tasks.PUT("/developer/:id", handlers.DeveloperUpdate)

		tasks.GET("/:id", handlers.GetTask)
		tasks.PUT("/:id", handlers.UpdateTask)
		tasks.DELETE("/:id", handlers.DeleteTask)
		tasks.GET("/:id/history", handlers.TaskHistory)
		tasks.GET("/:id/attachments/:category", handlers.DownloadCategory)
		tasks.POST("/:id/attachments/bulk", handlers.DownloadBulk)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
