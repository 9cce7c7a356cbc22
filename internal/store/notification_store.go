package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ymori/salesdesk/internal/model"
)

// CreateNotification inserts a new notification record, returning the
// stored row. The insert is published on the feed keyed by user_id so a
// recipient's live subscription receives it unchanged.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	// Recipient must exist; the schema has no FK-violation-free path for
	// a dangling user_id, but surface a clean NotFound instead of a
	// constraint error.
	if _, err := s.GetUserByID(ctx, n.UserID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, task_id, type, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.TaskID, string(n.Type), n.Title, n.Message,
		boolToInt(n.Read), n.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	s.feed.publish(TableNotifications, map[string]string{
		"id":      n.ID,
		"user_id": n.UserID,
	}, &n)

	return &n, nil
}

// ListNotifications retrieves all notifications addressed to the given
// user, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications for user %s: %w", userID, err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read. Read state is
// one-way; there is no unread transition.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification for the user
// as read. Calling it again is a no-op.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0", userID,
	)
	if err != nil {
		return fmt.Errorf("marking notifications read for user %s: %w", userID, err)
	}
	return nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.Notification, error) {
	var (
		n       model.Notification
		ntype   string
		readInt int
	)

	err := rows.Scan(
		&n.ID, &n.UserID, &n.TaskID, &ntype, &n.Title, &n.Message,
		&readInt, &n.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Type = model.NotificationType(ntype)
	n.Read = readInt != 0

	return n, nil
}
