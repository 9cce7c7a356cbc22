package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedUser inserts a user with the given role and returns it.
func SeedUser(t *testing.T, s *store.SQLiteStore, name string, role model.Role) model.User {
	t.Helper()

	u := model.User{
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", name, err)
	}

	stored, err := s.GetUserByEmail(context.Background(), u.Email)
	if err != nil {
		t.Fatalf("reading seeded user %s: %v", name, err)
	}
	return *stored
}

// SeedCustomer inserts a customer and returns it.
func SeedCustomer(t *testing.T, s *store.SQLiteStore, interviewID, lineName, realName string) model.Customer {
	t.Helper()

	c, err := s.CreateCustomer(context.Background(), model.Customer{
		InterviewID: interviewID,
		LineName:    lineName,
		RealName:    realName,
	})
	if err != nil {
		t.Fatalf("seeding customer %s: %v", interviewID, err)
	}
	return *c
}

// SeedTask inserts a pending task and returns it expanded.
func SeedTask(t *testing.T, s *store.SQLiteStore, customerID, title, assignedTo, assignedBy string) model.Task {
	t.Helper()

	task, err := s.CreateTask(context.Background(), model.Task{
		CustomerID: customerID,
		Title:      title,
		AssignedTo: assignedTo,
		AssignedBy: assignedBy,
	})
	if err != nil {
		t.Fatalf("seeding task %q: %v", title, err)
	}
	return *task
}

// Ctx returns a context with a short deadline suitable for store calls in
// tests.
func Ctx(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
