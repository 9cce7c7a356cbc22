package model

import "time"

// NotificationType identifies what kind of event produced a notification.
type NotificationType string

const (
	NotifyTaskAssigned  NotificationType = "task_assigned"
	NotifyTaskCompleted NotificationType = "task_completed"
	NotifyTaskApproved  NotificationType = "task_approved"
	NotifyTaskRejected  NotificationType = "task_rejected"
	NotifyThreadReply   NotificationType = "thread_reply"
)

// Notification is an alert addressed to a single user. Notifications are
// created only as side effects of task or thread mutations, never directly
// by a user action. Read is one-way: once true it never reverts.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// TaskID optionally links back to the originating task.
	TaskID *string `json:"task_id,omitempty" db:"task_id"`

	// Type identifies the triggering event (use Notify* constants).
	Type NotificationType `json:"type" db:"type"`

	// Title is the short human-readable headline.
	Title string `json:"title" db:"title"`

	// Message is the optional longer body.
	Message *string `json:"message,omitempty" db:"message"`

	// Read indicates whether the recipient has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
