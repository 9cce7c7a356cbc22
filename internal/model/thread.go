package model

import "time"

// TaskThread is one message in a task's comment thread. Threads are
// append-only; the only mutation after creation is an authorized delete.
type TaskThread struct {
	ID string `json:"id" db:"id"`

	// TaskID is the owning task relation.
	TaskID string `json:"task_id" db:"task_id"`

	// UserID is the author.
	UserID string `json:"user_id" db:"user_id"`

	// Message is the comment body; must be non-blank.
	Message string `json:"message" db:"message"`

	// AttachmentURL optionally points at an uploaded object.
	AttachmentURL *string `json:"attachment_url,omitempty" db:"attachment_url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// User is the expanded author relation, populated by store reads.
	User *User `json:"user,omitempty" db:"-"`
}
