package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ymori/salesdesk/internal/model"
)

const threadColumns = `
	th.id, th.task_id, th.user_id, th.message, th.attachment_url, th.created_at,
	u.id, u.email, u.name, u.role, u.manager_id, u.created_at, u.updated_at`

const threadJoins = `
	FROM task_threads th
	JOIN users u ON u.id = th.user_id`

// CreateThread appends a message to a task's thread and returns it with
// the author relation expanded.
func (s *SQLiteStore) CreateThread(ctx context.Context, th model.TaskThread) (*model.TaskThread, error) {
	if th.ID == "" {
		th.ID = uuid.New().String()
	}
	th.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO task_threads (id, task_id, user_id, message, attachment_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		th.ID, th.TaskID, th.UserID, th.Message, th.AttachmentURL, th.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating thread message on task %s: %w", th.TaskID, err)
	}

	created, err := s.GetThreadByID(ctx, th.ID)
	if err != nil {
		return nil, err
	}

	s.feed.publish(TableTaskThreads, map[string]string{
		"id":      created.ID,
		"task_id": created.TaskID,
	}, created)

	return created, nil
}

// DeleteThread removes a thread message by ID. Authorization is the
// caller's responsibility.
func (s *SQLiteStore) DeleteThread(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM task_threads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting thread %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting thread %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetThreadByID retrieves a single thread message with its author expanded.
func (s *SQLiteStore) GetThreadByID(ctx context.Context, id string) (*model.TaskThread, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT"+threadColumns+threadJoins+" WHERE th.id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting thread %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting thread %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	th, err := scanThread(rows)
	if err != nil {
		return nil, err
	}
	return &th, nil
}

// ListThreadsByTask retrieves a task's thread ordered by creation time
// ascending, authors expanded.
func (s *SQLiteStore) ListThreadsByTask(ctx context.Context, taskID string) ([]model.TaskThread, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT"+threadColumns+threadJoins+" WHERE th.task_id = ? ORDER BY th.created_at",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying threads for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var threads []model.TaskThread
	for rows.Next() {
		th, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, th)
	}

	return threads, rows.Err()
}

// scanThread scans an expanded thread row from a sqlx.Rows result set.
func scanThread(rows *sqlx.Rows) (model.TaskThread, error) {
	var (
		th   model.TaskThread
		user model.User
		role string
	)

	err := rows.Scan(
		&th.ID, &th.TaskID, &th.UserID, &th.Message, &th.AttachmentURL, &th.CreatedAt,
		&user.ID, &user.Email, &user.Name, &role, &user.ManagerID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return model.TaskThread{}, fmt.Errorf("scanning thread row: %w", err)
	}

	user.Role = model.Role(role)
	th.User = &user

	return th, nil
}
