// Package container provides dependency injection and lifecycle management
// for the task tracker.
package container

import (
	"fmt"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/persistence/mongodb"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/realtime"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/storage"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/database"
)

// Blob store drivers
const (
	BlobDriverGridFS = "gridfs"
	BlobDriverMinio  = "minio"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// MongoDB holds the task, company and user store
	MongoDB mongodb.Config

	// History is the SQLite database of task transitions
	History database.Config

	// Storage configuration
	Storage StorageConfig

	// Attachments is the upload acceptance policy
	Attachments service.AttachmentPolicy

	// Archive holds the sequential and bulk packaging budgets
	Archive ArchiveConfig

	// Realtime configuration
	Realtime RealtimeConfig
}

// StorageConfig holds file and blob storage settings.
type StorageConfig struct {
	// PublicDir is the root served under /uploads
	PublicDir string

	// BlobDriver selects gridfs or minio
	BlobDriver string

	// Bucket is the GridFS bucket or MinIO bucket name
	Bucket string

	// Minio holds the object storage endpoint and credentials
	Minio storage.MinioConfig
}

// ArchiveConfig holds the two packaging strategies.
type ArchiveConfig struct {
	Sequential service.ArchiveOptions
	Bulk       service.ArchiveOptions
}

// RealtimeConfig holds event streaming settings.
type RealtimeConfig struct {
	// RedisAddr enables cross-instance relay when set
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Channel       string

	// ClientBuffer is the per-client event queue length
	ClientBuffer int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MongoDB: mongodb.Config{
			URI:            "mongodb://localhost:27017",
			Database:       "daily_activity",
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    50,
		},
		History: database.Config{
			Path:            "data/history.db",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			BusyTimeout:     5 * time.Second,
		},
		Storage: StorageConfig{
			PublicDir:  "public",
			BlobDriver: BlobDriverGridFS,
			Bucket:     storage.DefaultBucketName,
		},
		Attachments: service.DefaultAttachmentPolicy(),
		Archive: ArchiveConfig{
			Sequential: service.SequentialArchiveOptions(),
			Bulk:       service.BulkArchiveOptions(),
		},
		Realtime: RealtimeConfig{
			Channel:      realtime.DefaultChannel,
			ClientBuffer: 32,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.MongoDB.URI == "" {
		return fmt.Errorf("mongodb.uri is required")
	}
	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb.database is required")
	}

	if c.History.Path == "" {
		return fmt.Errorf("history.path is required")
	}

	if c.Storage.PublicDir == "" {
		return fmt.Errorf("storage.public_dir is required")
	}
	if c.Storage.BlobDriver != BlobDriverGridFS && c.Storage.BlobDriver != BlobDriverMinio {
		return fmt.Errorf("storage.blob_driver %q is not supported", c.Storage.BlobDriver)
	}

	if c.Attachments.MaxFileBytes <= 0 {
		return fmt.Errorf("attachments.max_file_bytes must be positive")
	}

	return nil
}
