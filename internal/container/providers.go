package container

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/dispatcher"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/service"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/workflow"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/persistence/mongodb"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/persistence/repository"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/realtime"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/storage"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/worker"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/database"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/pkg/utils"
)

// DocumentStoreBundle holds the MongoDB client and the repositories built on it.
type DocumentStoreBundle struct {
	Client    *mongo.Client
	Database  *mongo.Database
	Tasks     port.TaskRepository
	Companies port.CompanyRepository
	Users     port.UserRepository
}

// HistoryBundle holds the SQLite history database components.
type HistoryBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
	Repository     port.HistoryRepository
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	FolderManager port.FolderManager
	BlobStore     port.BlobStore
}

// RealtimeBundle holds the event fan-out components.
// Relay is nil when events stay in-process.
type RealtimeBundle struct {
	Hub         *realtime.Hub
	Relay       *realtime.RedisRelay
	Redis       *redis.Client
	Broadcaster port.Broadcaster
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Attachments service.AttachmentService
	Tasks       service.TaskService
	Downloads   service.DownloadService
	Reports     service.ReportService
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Documents  *DocumentStoreBundle
	History    *HistoryBundle
	Storage    *StorageBundle
	Dispatcher dispatcher.Dispatcher
	Metrics    port.Metrics
	Policy     service.AttachmentPolicy
	Archive    ArchiveConfig
	Logger     *zap.Logger
}

// ProvideDocumentStore connects to MongoDB and creates the task, company and user repositories.
func ProvideDocumentStore(ctx context.Context, cfg *mongodb.Config, logger *zap.Logger) (*DocumentStoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongodb config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client, err := mongodb.Connect(ctx, *cfg, logger)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)

	return &DocumentStoreBundle{
		Client:    client,
		Database:  db,
		Tasks:     mongodb.NewTaskRepository(db, logger),
		Companies: mongodb.NewCompanyRepository(db),
		Users:     mongodb.NewUserRepository(db),
	}, nil
}

// ProvideHistory opens the history database, runs pending migrations and
// creates the transaction manager and history repository.
func ProvideHistory(ctx context.Context, cfg *database.Config, logger *zap.Logger) (*HistoryBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("history config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(*cfg, logger)
	if err != nil {
		return nil, err
	}

	if _, err := database.NewMigrator(db, logger).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &HistoryBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
		Repository:     repository.NewHistoryRepository(db.DB, logger),
	}, nil
}

// ProvideStorage creates the filesystem backend rooted at the public directory
// and the configured blob store.
func ProvideStorage(ctx context.Context, cfg *StorageConfig, db *mongo.Database, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &StorageBundle{
		FileStorage:   storage.NewLocalFileStorage(cfg.PublicDir, logger),
		FolderManager: storage.NewLocalFolderManager(filepath.Join(cfg.PublicDir, "uploads", "tasks"), logger),
	}

	switch cfg.BlobDriver {
	case BlobDriverMinio:
		minioCfg := cfg.Minio
		if minioCfg.Bucket == "" {
			minioCfg.Bucket = cfg.Bucket
		}
		client, err := storage.NewMinioClient(minioCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create minio client: %w", err)
		}
		store := storage.NewMinioBlobStore(client, minioCfg.Bucket, logger)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare minio bucket: %w", err)
		}
		bundle.BlobStore = store
	default:
		if db == nil {
			return nil, fmt.Errorf("gridfs blob store requires a mongodb database")
		}
		bundle.BlobStore = storage.NewGridFSBlobStore(db, cfg.Bucket, logger)
	}

	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKeyValueLogger(logger))), nil
}

// ProvideRealtime creates the client hub and, when Redis is configured, the relay
// that shares events between instances. The relay is registered with workers.
func ProvideRealtime(cfg *RealtimeConfig, workers *worker.WorkerManager, logger *zap.Logger) (*RealtimeBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("realtime config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	hub := realtime.NewHub(cfg.ClientBuffer, logger)
	bundle := &RealtimeBundle{Hub: hub, Broadcaster: hub}

	if cfg.RedisAddr == "" {
		return bundle, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	relay := realtime.NewRedisRelay(client, cfg.Channel, hub, logger)
	if workers != nil {
		workers.Register(relay)
	}

	bundle.Redis = client
	bundle.Relay = relay
	bundle.Broadcaster = relay
	return bundle, nil
}

// ProvideServices creates all application services and registers the history recorder.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Documents == nil || deps.History == nil || deps.Storage == nil {
		return nil, fmt.Errorf("documents, history and storage are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	logger := utils.NewKeyValueLogger(deps.Logger)

	attachments := service.NewAttachmentService(
		deps.Storage.FileStorage,
		deps.Storage.FolderManager,
		deps.Storage.BlobStore,
		deps.Policy,
		deps.Metrics,
		logger,
	)

	tasks := service.NewTaskService(
		deps.Documents.Tasks,
		deps.Documents.Companies,
		deps.Documents.Users,
		deps.History.Repository,
		attachments,
		workflow.NewTaskLifecycle(),
		deps.Dispatcher,
		logger,
	)

	downloads := service.NewDownloadService(
		deps.Documents.Tasks,
		attachments,
		service.NewArchivePackager(attachments, deps.Archive.Sequential, deps.Metrics, logger),
		service.NewArchivePackager(attachments, deps.Archive.Bulk, deps.Metrics, logger),
		deps.Dispatcher,
		logger,
	)

	service.NewHistoryRecorder(deps.History.Repository, deps.History.TransactionMgr, logger).Register(deps.Dispatcher)

	return &ServiceBundle{
		Attachments: attachments,
		Tasks:       tasks,
		Downloads:   downloads,
		Reports:     service.NewReportService(deps.Documents.Tasks, logger),
	}, nil
}
