package config

import (
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/container"
	httpapi "github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/interfaces/http"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/persistence/mongodb"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/storage"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/database"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	policy := service.DefaultAttachmentPolicy()
	policy.MaxFileBytes = c.Attachments.MaxFileBytes
	if len(c.Attachments.AllowedMIMETypes) > 0 {
		policy.AllowedMIMETypes = c.Attachments.AllowedMIMETypes
	}
	if len(c.Attachments.AllowedExtensions) > 0 {
		policy.AllowedExtensions = c.Attachments.AllowedExtensions
	}

	sequential := service.SequentialArchiveOptions()
	sequential.Timeout = c.Archive.Timeout
	sequential.MaxTotalBytes = c.Archive.MaxTotalBytes
	sequential.SoftCapBytes = c.Archive.SoftCapBytes

	bulk := service.BulkArchiveOptions()
	bulk.Timeout = c.Archive.BulkTimeout
	bulk.Parallelism = c.Archive.BulkParallelism

	return &container.Config{
		MongoDB: mongodb.Config{
			URI:            c.MongoDB.URI,
			Database:       c.MongoDB.Database,
			ConnectTimeout: c.MongoDB.ConnectTimeout,
			MaxPoolSize:    c.MongoDB.MaxPoolSize,
		},
		History: database.Config{
			Path:            c.History.Path,
			MaxOpenConns:    c.History.MaxOpenConns,
			MaxIdleConns:    c.History.MaxIdleConns,
			ConnMaxLifetime: c.History.ConnMaxLifetime,
			BusyTimeout:     c.History.BusyTimeout,
		},
		Storage: container.StorageConfig{
			PublicDir:  c.Storage.PublicDir,
			BlobDriver: c.Storage.BlobDriver,
			Bucket:     c.Storage.Bucket,
			Minio: storage.MinioConfig{
				Endpoint:  c.Storage.Minio.Endpoint,
				AccessKey: c.Storage.Minio.AccessKey,
				SecretKey: c.Storage.Minio.SecretKey,
				Bucket:    c.Storage.Bucket,
				UseSSL:    c.Storage.Minio.UseSSL,
			},
		},
		Attachments: policy,
		Archive: container.ArchiveConfig{
			Sequential: sequential,
			Bulk:       bulk,
		},
		Realtime: container.RealtimeConfig{
			RedisAddr:     c.Realtime.RedisAddr,
			RedisPassword: c.Realtime.RedisPassword,
			RedisDB:       c.Realtime.RedisDB,
			Channel:       c.Realtime.Channel,
			ClientBuffer:  c.Realtime.ClientBuffer,
		},
	}
}

// ToServerConfig converts the server section to the HTTP adapter configuration
func (c *Config) ToServerConfig() httpapi.ServerConfig {
	cfg := httpapi.DefaultServerConfig()
	cfg.Host = c.Server.Host
	cfg.Port = c.Server.Port
	cfg.ReadTimeout = c.Server.ReadTimeout
	cfg.WriteTimeout = c.Server.WriteTimeout
	cfg.PublicDir = c.Storage.PublicDir
	cfg.MaxUploadBytes = c.Attachments.MaxFileBytes
	cfg.MultipartMemory = c.Server.MultipartMemory
	cfg.Heartbeat = c.Realtime.Heartbeat
	return cfg
}

// ToLoggerConfig converts the logger section for utils.NewLogger
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
		Service:    "daily-activity",

		SampleInitial:    c.Logger.SampleInitial,
		SampleThereafter: c.Logger.SampleThereafter,
	}
}
