package port

import (
	"context"
	"errors"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

// ErrNotFound is returned by repositories when a record does not exist or its id is malformed
var ErrNotFound = errors.New("record not found")

// TaskFilter narrows task listings. Nil pointers leave a flag unfiltered.
type TaskFilter struct {
	Status   string
	Assigned *bool
	Unposted *bool
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// TaskRepository defines persistence operations for Task documents.
// Update is a single partial write with no version check: concurrent editors are last-write-wins.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	FindByID(ctx context.Context, id string) (*entity.Task, error)

	// Update applies a partial document and returns the document after the write
	Update(ctx context.Context, id string, update entity.TaskUpdate) (*entity.Task, error)

	// Delete removes the task and returns the deleted document
	Delete(ctx context.Context, id string) (*entity.Task, error)

	// List returns tasks newest first
	List(ctx context.Context, filter TaskFilter) ([]*entity.Task, error)
}

// CompanyRepository reads companies owned by the administrative routes
type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (*entity.Company, error)
}

// UserRepository reads users owned by the administrative routes
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

// HistoryRepository persists accepted lifecycle transitions
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.TaskHistory) error
	GetByTaskID(ctx context.Context, taskID string) ([]*entity.TaskHistory, error)

	// TouchActivity increments the transition counter of a task
	TouchActivity(ctx context.Context, taskID, status string, at time.Time) error
	GetActivity(ctx context.Context, taskID string) (*entity.TaskActivity, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
