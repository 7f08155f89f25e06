package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DefaultBucketName is the GridFS bucket holding task attachments
const DefaultBucketName = "attachments"

// GridFSBlobStore implements port.BlobStore on a MongoDB GridFS bucket
type GridFSBlobStore struct {
	db         *mongo.Database
	bucketName string
	logger     *zap.Logger
}

// gridfsFile is the files-collection document
type gridfsFile struct {
	ID         primitive.ObjectID `bson:"_id"`
	Length     int64              `bson:"length"`
	UploadDate time.Time          `bson:"uploadDate"`
	Filename   string             `bson:"filename"`
	Metadata   bson.M             `bson:"metadata"`
}

// NewGridFSBlobStore creates a blob store on db
func NewGridFSBlobStore(db *mongo.Database, bucketName string, logger *zap.Logger) *GridFSBlobStore {
	if bucketName == "" {
		bucketName = DefaultBucketName
	}
	return &GridFSBlobStore{
		db:         db,
		bucketName: bucketName,
		logger:     logger,
	}
}

func (s *GridFSBlobStore) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucketName))
}

// Upload streams content into a new GridFS file tagged with metadata
func (s *GridFSBlobStore) Upload(ctx context.Context, name, contentType string, content []byte, metadata map[string]string) (string, error) {
	bucket, err := s.bucket()
	if err != nil {
		return "", fmt.Errorf("failed to open bucket: %w", err)
	}

	meta := bson.M{port.BlobMetaContentType: contentType}
	for k, v := range metadata {
		meta[k] = v
	}

	stream, err := bucket.OpenUploadStream(name, options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return "", fmt.Errorf("failed to open upload stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}

	if _, err := stream.Write(content); err != nil {
		_ = stream.Abort()
		s.logger.Error("GridFS write failed", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := stream.Close(); err != nil {
		s.logger.Error("GridFS close failed", zap.String("name", name), zap.Error(err))
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected blob id type %T", stream.FileID)
	}

	s.logger.Debug("Blob uploaded",
		zap.String("id", id.Hex()),
		zap.String("name", name),
		zap.Int("size", len(content)))

	return id.Hex(), nil
}

// Stat looks up blob metadata without reading content
func (s *GridFSBlobStore) Stat(ctx context.Context, id string) (*port.BlobInfo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
	}

	var file gridfsFile
	err = s.db.Collection(s.bucketName+".files").FindOne(ctx, bson.M{"_id": oid}).Decode(&file)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
		}
		return nil, fmt.Errorf("failed to stat blob: %w", err)
	}

	return file.info(), nil
}

// Open returns a reader over the blob content. The caller closes it.
func (s *GridFSBlobStore) Open(ctx context.Context, id string) (io.ReadCloser, *port.BlobInfo, error) {
	info, err := s.Stat(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	bucket, err := s.bucket()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open bucket: %w", err)
	}

	oid, _ := primitive.ObjectIDFromHex(id)
	stream, err := bucket.OpenDownloadStream(oid)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to open download stream: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}

	return stream, info, nil
}

// Delete removes the blob and its chunks
func (s *GridFSBlobStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
	}

	bucket, err := s.bucket()
	if err != nil {
		return fmt.Errorf("failed to open bucket: %w", err)
	}
	if err := bucket.Delete(oid); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("%w: %s", port.ErrBlobNotFound, id)
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Ping checks the backing database
func (s *GridFSBlobStore) Ping(ctx context.Context) error {
	return s.db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

func (f *gridfsFile) info() *port.BlobInfo {
	info := &port.BlobInfo{
		ID:         f.ID.Hex(),
		Filename:   f.Filename,
		Length:     f.Length,
		Metadata:   make(map[string]string, len(f.Metadata)),
		UploadedAt: f.UploadDate,
	}
	for k, v := range f.Metadata {
		if str, ok := v.(string); ok {
			info.Metadata[k] = str
		}
	}
	info.ContentType = info.Metadata[port.BlobMetaContentType]
	if name := info.Metadata[port.BlobMetaOriginalName]; name != "" {
		info.Filename = name
	}
	return info
}

var _ port.BlobStore = (*GridFSBlobStore)(nil)
