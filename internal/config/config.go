package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Blob store drivers
const (
	BlobDriverGridFS = "gridfs"
	BlobDriverMinio  = "minio"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	MongoDB     MongoDBConfig     `mapstructure:"mongodb"`
	History     HistoryConfig     `mapstructure:"history"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Archive     ArchiveConfig     `mapstructure:"archive"`
	Realtime    RealtimeConfig    `mapstructure:"realtime"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MultipartMemory int64         `mapstructure:"multipart_memory"`
}

// MongoDBConfig holds the task document store connection
type MongoDBConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

// HistoryConfig holds the SQLite task history database
type HistoryConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// StorageConfig holds the filesystem and blob store settings
type StorageConfig struct {
	PublicDir  string      `mapstructure:"public_dir"`
	BlobDriver string      `mapstructure:"blob_driver"`
	Bucket     string      `mapstructure:"bucket"`
	Minio      MinioConfig `mapstructure:"minio"`
}

// MinioConfig holds S3-compatible object storage credentials
type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// AttachmentsConfig holds the upload acceptance policy. Empty lists fall back to the built-in policy.
type AttachmentsConfig struct {
	MaxFileBytes      int64    `mapstructure:"max_file_bytes"`
	AllowedMIMETypes  []string `mapstructure:"allowed_mime_types"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// ArchiveConfig holds the packaging budgets
type ArchiveConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxTotalBytes   int64         `mapstructure:"max_total_bytes"`
	SoftCapBytes    int64         `mapstructure:"soft_cap_bytes"`
	BulkTimeout     time.Duration `mapstructure:"bulk_timeout"`
	BulkParallelism int           `mapstructure:"bulk_parallelism"`
}

// RealtimeConfig holds the event stream settings. An empty RedisAddr keeps events in-process.
type RealtimeConfig struct {
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Channel       string        `mapstructure:"channel"`
	Heartbeat     time.Duration `mapstructure:"heartbeat"`
	ClientBuffer  int           `mapstructure:"client_buffer"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
	// Sampling keeps the first N entries per message each second; 0 disables it
	SampleInitial    int `mapstructure:"sample_initial"`
	SampleThereafter int `mapstructure:"sample_thereafter"`
}

// Load loads configuration from file, an optional .env next to the working directory
// and environment variables
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv exports the variables of path without overriding the real environment
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.multipart_memory", 32<<20)

	// MongoDB defaults
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "daily_activity")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.max_pool_size", 50)

	// History defaults
	v.SetDefault("history.path", "data/history.db")
	v.SetDefault("history.max_open_conns", 1)
	v.SetDefault("history.max_idle_conns", 1)
	v.SetDefault("history.conn_max_lifetime", time.Hour)
	v.SetDefault("history.busy_timeout", 5*time.Second)

	// Storage defaults
	v.SetDefault("storage.public_dir", "public")
	v.SetDefault("storage.blob_driver", BlobDriverGridFS)
	v.SetDefault("storage.bucket", "attachments")
	v.SetDefault("storage.minio.use_ssl", false)

	// Attachment defaults
	v.SetDefault("attachments.max_file_bytes", 10<<20)

	// Archive defaults
	v.SetDefault("archive.timeout", 8*time.Second)
	v.SetDefault("archive.max_total_bytes", 20<<20)
	v.SetDefault("archive.soft_cap_bytes", 15<<20)
	v.SetDefault("archive.bulk_timeout", 60*time.Second)
	v.SetDefault("archive.bulk_parallelism", 8)

	// Realtime defaults
	v.SetDefault("realtime.channel", "daily-activity:task-events")
	v.SetDefault("realtime.heartbeat", 25*time.Second)
	v.SetDefault("realtime.client_buffer", 32)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.sample_initial", 0)
	v.SetDefault("logger.sample_thereafter", 100)
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Connection strings and credentials from environment
	bindings := map[string]string{
		"mongodb.uri":              "MONGODB_URI",
		"mongodb.database":         "MONGODB_DATABASE",
		"storage.minio.endpoint":   "MINIO_ENDPOINT",
		"storage.minio.access_key": "MINIO_ACCESS_KEY",
		"storage.minio.secret_key": "MINIO_SECRET_KEY",
		"realtime.redis_addr":      "REDIS_ADDR",
		"realtime.redis_password":  "REDIS_PASSWORD",
		"server.port":              "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

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
	switch c.Storage.BlobDriver {
	case BlobDriverGridFS:
	case BlobDriverMinio:
		if c.Storage.Minio.Endpoint == "" {
			return fmt.Errorf("storage.minio.endpoint is required for the minio driver")
		}
		if c.Storage.Minio.AccessKey == "" || c.Storage.Minio.SecretKey == "" {
			return fmt.Errorf("storage.minio credentials are required for the minio driver")
		}
	default:
		return fmt.Errorf("storage.blob_driver %q is not supported", c.Storage.BlobDriver)
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required")
	}

	if c.Attachments.MaxFileBytes <= 0 {
		return fmt.Errorf("attachments.max_file_bytes must be positive")
	}

	if c.Archive.SoftCapBytes > 0 && c.Archive.MaxTotalBytes > 0 && c.Archive.SoftCapBytes > c.Archive.MaxTotalBytes {
		return fmt.Errorf("archive.soft_cap_bytes must not exceed archive.max_total_bytes")
	}
	if c.Archive.BulkParallelism < 1 {
		return fmt.Errorf("archive.bulk_parallelism must be at least 1")
	}

	return nil
}
