package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ymori/salesdesk/internal/model"
)

// CreateCustomer inserts a new customer row and returns the stored record.
func (s *SQLiteStore) CreateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, interview_id, line_name, real_name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.InterviewID, c.LineName, c.RealName, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer %s: %w", c.InterviewID, err)
	}

	s.feed.publish(TableCustomers, map[string]string{"id": c.ID}, &c)

	return &c, nil
}

// UpdateCustomer persists changes to an existing customer row and returns
// the stored record.
func (s *SQLiteStore) UpdateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error) {
	c.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET interview_id = ?, line_name = ?, real_name = ?, updated_at = ?
		WHERE id = ?`,
		c.InterviewID, c.LineName, c.RealName, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating customer %s: %w", c.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("updating customer %s: %w", c.ID, err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	return s.GetCustomerByID(ctx, c.ID)
}

// GetCustomerByID retrieves a single customer by ID.
func (s *SQLiteStore) GetCustomerByID(ctx context.Context, id string) (*model.Customer, error) {
	var c model.Customer
	err := s.db.GetContext(ctx, &c, "SELECT * FROM customers WHERE id = ?", id)
	if err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("getting customer %s", id))
	}
	return &c, nil
}

// ListCustomers retrieves all customers, newest first.
func (s *SQLiteStore) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	err := s.db.SelectContext(ctx, &customers,
		"SELECT * FROM customers ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying customers: %w", err)
	}
	return customers, nil
}

// FindCustomersByInterviewID retrieves every customer sharing the given
// interview id. Interview ids are not unique; the reconciliation flow
// decides what to do with multiple hits.
func (s *SQLiteStore) FindCustomersByInterviewID(ctx context.Context, interviewID string) ([]model.Customer, error) {
	var customers []model.Customer
	err := s.db.SelectContext(ctx, &customers,
		"SELECT * FROM customers WHERE interview_id = ? ORDER BY created_at",
		interviewID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying customers by interview id %s: %w", interviewID, err)
	}
	return customers, nil
}
