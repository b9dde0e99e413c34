package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateTask inserts a task under an existing project. An empty status
// defaults to "to do"; anything outside the enumerated set is rejected.
func (s *Store) CreateTask(ctx context.Context, projectID, title, status string) (*Task, error) {
	if err := s.projectExists(ctx, projectID); err != nil {
		return nil, err
	}

	if status == "" {
		status = StatusToDo
	}
	if !ValidStatuses[status] {
		return nil, ErrInvalidStatus
	}

	task := &Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Title:     title,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tasks (id, project_id, title, status, created_at) VALUES (?, ?, ?, ?, ?)",
		task.ID, task.ProjectID, task.Title, task.Status, task.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}

	return task, nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*Task, error) {
	var t Task
	err := s.db.QueryRowContext(ctx,
		"SELECT id, project_id, title, status, created_at FROM tasks WHERE id = ?", id).
		Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &t, nil
}

// ListProjectTasks returns all tasks belonging to the project.
func (s *Store) ListProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, project_id, title, status, created_at FROM tasks WHERE project_id = ? ORDER BY created_at ASC",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, id, title, status string) (*Task, error) {
	if !ValidStatuses[status] {
		return nil, ErrInvalidStatus
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET title = ?, status = ? WHERE id = ?", title, status, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetTask(ctx, id)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProjectTasks removes every task under the project. Deleting
// zero tasks is success; an unknown project is not.
func (s *Store) DeleteProjectTasks(ctx context.Context, projectID string) error {
	if err := s.projectExists(ctx, projectID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE project_id = ?", projectID)
	if err != nil {
		return fmt.Errorf("failed to delete tasks: %w", err)
	}
	return nil
}

// MarkProjectTasksDone sets status "done" on every task under the
// project, whatever their current status. Idempotent.
func (s *Store) MarkProjectTasksDone(ctx context.Context, projectID string) error {
	if err := s.projectExists(ctx, projectID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ? WHERE project_id = ?", StatusDone, projectID)
	if err != nil {
		return fmt.Errorf("failed to update tasks: %w", err)
	}
	return nil
}
