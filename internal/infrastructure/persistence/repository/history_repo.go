package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository on SQLite
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a transition record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.TaskHistory) error {
	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}

	query := `
		INSERT INTO task_history (
			task_id, trigger_name, previous_status, new_status, actor, details, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		history.TaskID,
		history.Trigger,
		history.PreviousStatus,
		history.NewStatus,
		history.Actor,
		history.Details,
		history.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.String("task_id", history.TaskID), zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByTaskID returns the transitions of a task, oldest first
func (r *HistoryRepository) GetByTaskID(ctx context.Context, taskID string) ([]*entity.TaskHistory, error) {
	query := `
		SELECT id, task_id, trigger_name, previous_status, new_status, actor, details, timestamp
		FROM task_history
		WHERE task_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, taskID)
	if err != nil {
		r.logger.Error("Failed to get history by task ID", zap.String("task_id", taskID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	records := []*entity.TaskHistory{}
	for rows.Next() {
		var record entity.TaskHistory
		err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.Trigger,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Actor,
			&record.Details,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// TouchActivity upserts the activity summary of a task
func (r *HistoryRepository) TouchActivity(ctx context.Context, taskID, status string, at time.Time) error {
	query := `
		INSERT INTO task_activity (task_id, last_status, transitions, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			last_status = excluded.last_status,
			transitions = task_activity.transitions + 1,
			updated_at = excluded.updated_at
	`

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, taskID, status, at.UTC()); err != nil {
		r.logger.Error("Failed to update task activity", zap.String("task_id", taskID), zap.Error(err))
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return nil
}

// GetActivity returns the activity summary or port.ErrNotFound
func (r *HistoryRepository) GetActivity(ctx context.Context, taskID string) (*entity.TaskActivity, error) {
	query := `SELECT task_id, last_status, transitions, updated_at FROM task_activity WHERE task_id = ?`

	var a entity.TaskActivity
	err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, taskID).Scan(
		&a.TaskID,
		&a.LastStatus,
		&a.Transitions,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, port.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return &a, nil
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
