package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MinioConfig holds S3-compatible endpoint settings
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioBlobStore implements port.BlobStore on an S3-compatible bucket.
// Object names are fresh ObjectID hex strings so references keep the blob id shape.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinioClient connects to the endpoint
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
}

// NewMinioBlobStore creates a blob store on bucket
func NewMinioBlobStore(client *minio.Client, bucket string, logger *zap.Logger) *MinioBlobStore {
	if bucket == "" {
		bucket = DefaultBucketName
	}
	return &MinioBlobStore{
		client: client,
		bucket: bucket,
		logger: logger,
	}
}

// EnsureBucket creates the bucket when it does not exist
func (s *MinioBlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	s.logger.Info("Created blob bucket", zap.String("bucket", s.bucket))
	return nil
}

// Upload stores content under a new ObjectID name
func (s *MinioBlobStore) Upload(ctx context.Context, name, contentType string, content []byte, metadata map[string]string) (string, error) {
	id := primitive.NewObjectID().Hex()

	userMeta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		userMeta[k] = v
	}
	if _, ok := userMeta[port.BlobMetaOriginalName]; !ok {
		userMeta[port.BlobMetaOriginalName] = name
	}

	_, err := s.client.PutObject(ctx, s.bucket, id, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: userMeta,
	})
	if err != nil {
		s.logger.Error("Object upload failed", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}

	return id, nil
}

// Stat reads object metadata
func (s *MinioBlobStore) Stat(ctx context.Context, id string) (*port.BlobInfo, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
	}

	obj, err := s.client.StatObject(ctx, s.bucket, id, minio.StatObjectOptions{})
	if err != nil {
		return nil, s.mapError(id, err)
	}
	return objectInfo(id, obj), nil
}

// Open returns a reader over the object content. The caller closes it.
func (s *MinioBlobStore) Open(ctx context.Context, id string) (io.ReadCloser, *port.BlobInfo, error) {
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, id, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, s.mapError(id, err)
	}
	return obj, info, nil
}

// Delete removes the object
func (s *MinioBlobStore) Delete(ctx context.Context, id string) error {
	if !primitive.IsValidObjectID(id) {
		return fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return s.mapError(id, err)
	}
	return nil
}

// Ping checks that the bucket is reachable
func (s *MinioBlobStore) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucket)
	}
	return nil
}

func (s *MinioBlobStore) mapError(id string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchObject":
		return fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
	}
	return fmt.Errorf("blob %s: %w", id, err)
}

func objectInfo(id string, obj minio.ObjectInfo) *port.BlobInfo {
	info := &port.BlobInfo{
		ID:          id,
		Filename:    id,
		ContentType: obj.ContentType,
		Length:      obj.Size,
		Metadata:    make(map[string]string, len(obj.UserMetadata)),
		UploadedAt:  obj.LastModified,
	}
	// user metadata keys come back canonicalized, e.g. "Originalname"
	for k, v := range obj.UserMetadata {
		info.Metadata[canonicalMetaKey(k)] = v
	}
	if name := info.Metadata[port.BlobMetaOriginalName]; name != "" {
		info.Filename = name
	}
	return info
}

var knownMetaKeys = []string{
	port.BlobMetaOriginalName,
	port.BlobMetaContentType,
	port.BlobMetaUploaderID,
	port.BlobMetaTaskID,
	port.BlobMetaCategory,
	port.BlobMetaUploadedAt,
}

func canonicalMetaKey(k string) string {
	k = strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
	for _, known := range knownMetaKeys {
		if strings.EqualFold(k, known) {
			return known
		}
	}
	return k
}

var _ port.BlobStore = (*MinioBlobStore)(nil)
