package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// TaskRepository implements port.TaskRepository on the tasks collection
type TaskRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *mongo.Database, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		coll:   db.Collection(TasksCollection),
		logger: logger,
	}
}

// Create inserts a task and sets its generated id
func (r *TaskRepository) Create(ctx context.Context, task *entity.Task) error {
	now := time.Now()
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, task); err != nil {
		r.logger.Error("Failed to insert task", zap.String("code", task.Code), zap.Error(err))
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// FindByID returns the task or port.ErrNotFound
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*entity.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, port.ErrNotFound
	}

	var task entity.Task
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// Update applies update with $set and returns the document after the write
func (r *TaskRepository) Update(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, port.ErrNotFound
	}

	set := bson.M{}
	for k, v := range update {
		set[k] = v
	}
	set[entity.FieldUpdatedAt] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var task entity.Task
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, port.ErrNotFound
		}
		r.logger.Error("Failed to update task", zap.String("task_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return &task, nil
}

// Delete removes the task and returns the deleted document
func (r *TaskRepository) Delete(ctx context.Context, id string) (*entity.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, port.ErrNotFound
	}

	var task entity.Task
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&task); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return &task, nil
}

// List returns tasks matching filter, newest first
func (r *TaskRepository) List(ctx context.Context, filter port.TaskFilter) ([]*entity.Task, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(filter.Offset))

	cursor, err := r.coll.Find(ctx, buildTaskFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := []*entity.Task{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}

func buildTaskFilter(f port.TaskFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter[entity.FieldStatus] = f.Status
	}
	if f.Assigned != nil {
		filter[entity.FieldAssigned] = *f.Assigned
	}
	if f.Unposted != nil {
		filter[entity.FieldUnposted] = *f.Unposted
	}
	if f.From != nil || f.To != nil {
		created := bson.M{}
		if f.From != nil {
			created["$gte"] = *f.From
		}
		if f.To != nil {
			created["$lt"] = *f.To
		}
		filter["createdAt"] = created
	}
	return filter
}

var _ port.TaskRepository = (*TaskRepository)(nil)
