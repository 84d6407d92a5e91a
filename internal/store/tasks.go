package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateTask inserts a pending task record.
func (s *Store) CreateTask(ctx context.Context, id, name string) (*Task, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO check_tasks (id, name, status, progress, message, created_at, updated_at)
         VALUES (?, ?, ?, 0, ?, ?, ?)`,
		id,
		name,
		TaskPending,
		"queued",
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetTask(ctx, id)
}

// GetTask fetches a task by identifier.
func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM check_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// ListTasks returns the most recent tasks, newest first.
func (s *Store) ListTasks(ctx context.Context, limit int) ([]*Task, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM check_tasks ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// TaskUpdate carries a partial task mutation; nil fields are left untouched.
type TaskUpdate struct {
	Status   *TaskStatus
	Progress *int
	Message  *string
}

// UpdateTask applies a partial update and returns the stored row.
func (s *Store) UpdateTask(ctx context.Context, id string, upd TaskUpdate) (*Task, error) {
	task, err := s.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Status != nil {
		task.Status = *upd.Status
	}
	if upd.Progress != nil {
		task.Progress = *upd.Progress
	}
	if upd.Message != nil {
		task.Message = *upd.Message
	}
	task.UpdatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE check_tasks SET status = ?, progress = ?, message = ?, updated_at = ? WHERE id = ?`,
		string(task.Status),
		task.Progress,
		nullableString(task.Message),
		task.UpdatedAt.Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}
