package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ymori/salesdesk/internal/model"
)

// CreateUser inserts a new user row. If the user has no ID, a new UUID is
// generated.
func (s *SQLiteStore) CreateUser(ctx context.Context, u model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, manager_id, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, string(u.Role), u.ManagerID, u.PasswordHash, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.Email, err)
	}

	u.CreatedAt = now
	u.UpdatedAt = now
	s.feed.publish(TableUsers, map[string]string{"id": u.ID}, &u)

	return nil
}

// GetUserByID retrieves a single user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE id = ?", id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("getting user %s", id))
	}
	return &u, nil
}

// GetUserByEmail retrieves a single user by email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u, "SELECT * FROM users WHERE email = ?", email)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("getting user by email %s", email))
	}
	return &u, nil
}

// ListUsers retrieves all users ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return users, nil
}

// UpdateUser persists changes to an existing user row. The role column is
// never touched here; role changes go through UpdateUserRole.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u model.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, name = ?, manager_id = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.Name, u.ManagerID, u.PasswordHash, time.Now().UTC(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("updating user %s: %w", u.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating user %s: %w", u.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserRole sets the role column for a single user.
func (s *SQLiteStore) UpdateUserRole(ctx context.Context, id string, role model.Role) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating role for user %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating role for user %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
