package store

import (
	"context"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
)

// ErrNotFound is returned when a lookup references an absent row. It is
// the shared errs.ErrNotFound sentinel, so errors.Is matches whichever
// name the caller checks against.
var ErrNotFound = errs.ErrNotFound

// TaskFilter controls filtering and ordering for task queries.
type TaskFilter struct {
	AssignedTo *string
	AssignedBy *string
	Status     *string
	Query      *string // search title + description
	SortDesc   bool    // order by created_at
}

// Store defines the persistence interface for users, customers, tasks,
// task threads, and notifications. Task and thread reads expand their
// foreign-key relations. Every insert is published on the store's feed.
type Store interface {
	// === Users ===

	CreateUser(ctx context.Context, u model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u model.User) error
	UpdateUserRole(ctx context.Context, id string, role model.Role) error

	// === Customers ===

	CreateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, c model.Customer) (*model.Customer, error)
	GetCustomerByID(ctx context.Context, id string) (*model.Customer, error)
	ListCustomers(ctx context.Context) ([]model.Customer, error)
	FindCustomersByInterviewID(ctx context.Context, interviewID string) ([]model.Customer, error)

	// === Tasks ===

	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, t model.Task) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// === Task threads ===

	CreateThread(ctx context.Context, th model.TaskThread) (*model.TaskThread, error)
	DeleteThread(ctx context.Context, id string) error
	GetThreadByID(ctx context.Context, id string) (*model.TaskThread, error)
	ListThreadsByTask(ctx context.Context, taskID string) ([]model.TaskThread, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error

	// === Insert feed ===

	// SubscribeInserts returns a subscription delivering every row
	// inserted into table whose field equals value. An empty field
	// matches all inserts on the table.
	SubscribeInserts(table, field, value string) *Subscription
}
