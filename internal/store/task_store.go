package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ymori/salesdesk/internal/model"
)

// taskColumns selects a task row joined with its customer and both user
// relations. Password hashes are deliberately not expanded.
const taskColumns = `
	t.id, t.customer_id, t.title, t.description, t.status, t.deadline,
	t.assigned_to, t.assigned_by, t.created_at, t.updated_at,
	c.id, c.interview_id, c.line_name, c.real_name, c.created_at, c.updated_at,
	ua.id, ua.email, ua.name, ua.role, ua.manager_id, ua.created_at, ua.updated_at,
	ub.id, ub.email, ub.name, ub.role, ub.manager_id, ub.created_at, ub.updated_at`

const taskJoins = `
	FROM tasks t
	JOIN customers c ON c.id = t.customer_id
	JOIN users ua ON ua.id = t.assigned_to
	JOIN users ub ON ub.id = t.assigned_by`

// CreateTask inserts a new task row and returns it with relations expanded.
func (s *SQLiteStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, customer_id, title, description, status, deadline,
			assigned_to, assigned_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CustomerID, t.Title, t.Description, string(t.Status), t.Deadline,
		t.AssignedTo, t.AssignedBy, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task %q: %w", t.Title, err)
	}

	created, err := s.GetTaskByID(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	s.feed.publish(TableTasks, map[string]string{
		"id":          created.ID,
		"assigned_to": created.AssignedTo,
		"assigned_by": created.AssignedBy,
	}, created)

	return created, nil
}

// UpdateTask persists changes to an existing task row and returns it with
// relations expanded. updated_at is refreshed on every call.
func (s *SQLiteStore) UpdateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET customer_id = ?, title = ?, description = ?, status = ?, deadline = ?,
			assigned_to = ?, assigned_by = ?, updated_at = ?
		WHERE id = ?`,
		t.CustomerID, t.Title, t.Description, string(t.Status), t.Deadline,
		t.AssignedTo, t.AssignedBy, time.Now().UTC(), t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", t.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetTaskByID(ctx, t.ID)
}

// DeleteTask removes a task by ID. Threads and notifications referencing
// the task are left in place.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTaskByID retrieves a single task with relations expanded.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT"+taskColumns+taskJoins+" WHERE t.id = ?", id,
	)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("getting task %s: %w", id, err)
		}
		return nil, ErrNotFound
	}

	task, err := scanTask(rows)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks retrieves tasks matching the provided filter, expanded and
// ordered by creation time (newest first by default).
func (s *SQLiteStore) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	if filter.AssignedTo != nil {
		conditions = append(conditions, "t.assigned_to = ?")
		args = append(args, *filter.AssignedTo)
	}
	if filter.AssignedBy != nil {
		conditions = append(conditions, "t.assigned_by = ?")
		args = append(args, *filter.AssignedBy)
	}
	if filter.Status != nil {
		conditions = append(conditions, "t.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(t.title LIKE ? OR t.description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT" + taskColumns + taskJoins
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	direction := "DESC"
	if !filter.SortDesc {
		direction = "ASC"
	}
	query += " ORDER BY t.created_at " + direction

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// scanTask scans an expanded task row from a sqlx.Rows result set.
func scanTask(rows *sqlx.Rows) (model.Task, error) {
	var (
		task     model.Task
		status   string
		customer model.Customer
		toUser   model.User
		toRole   string
		byUser   model.User
		byRole   string
	)

	err := rows.Scan(
		&task.ID, &task.CustomerID, &task.Title, &task.Description, &status, &task.Deadline,
		&task.AssignedTo, &task.AssignedBy, &task.CreatedAt, &task.UpdatedAt,
		&customer.ID, &customer.InterviewID, &customer.LineName, &customer.RealName,
		&customer.CreatedAt, &customer.UpdatedAt,
		&toUser.ID, &toUser.Email, &toUser.Name, &toRole, &toUser.ManagerID,
		&toUser.CreatedAt, &toUser.UpdatedAt,
		&byUser.ID, &byUser.Email, &byUser.Name, &byRole, &byUser.ManagerID,
		&byUser.CreatedAt, &byUser.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.Status = model.Status(status)
	toUser.Role = model.Role(toRole)
	byUser.Role = model.Role(byRole)

	task.Customer = &customer
	task.AssignedToUser = &toUser
	task.AssignedByUser = &byUser

	return task, nil
}
