package model

import "time"

// Status is a task's position in the approval workflow.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// Statuses lists every valid status value.
var Statuses = []Status{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusApproved,
	StatusRejected,
}

// ValidStatus reports whether s is one of the enumerated status values.
func ValidStatus(s Status) bool {
	for _, v := range Statuses {
		if v == s {
			return true
		}
	}
	return false
}

// Task is a unit of work created against a customer and delegated to a
// user. AssignedTo and AssignedBy may name the same user (self-assignment).
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// CustomerID is the owning customer relation.
	CustomerID string `json:"customer_id" db:"customer_id"`

	// Title is the human-readable summary; must be non-blank.
	Title string `json:"title" db:"title"`

	// Description is free text. It may carry a trailing image-reference
	// block in the attachment package's wire format.
	Description string `json:"description" db:"description"`

	// Status is the workflow state (use Status* constants). Transitions
	// go through the status policy only.
	Status Status `json:"status" db:"status"`

	// Deadline is the optional due date.
	Deadline *time.Time `json:"deadline,omitempty" db:"deadline"`

	// AssignedTo is the assignee user id.
	AssignedTo string `json:"assigned_to" db:"assigned_to"`

	// AssignedBy is the assigner user id.
	AssignedBy string `json:"assigned_by" db:"assigned_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Expanded relations, populated by store reads that join the
	// customer and both user rows.
	Customer       *Customer `json:"customer,omitempty" db:"-"`
	AssignedToUser *User     `json:"assigned_to_user,omitempty" db:"-"`
	AssignedByUser *User     `json:"assigned_by_user,omitempty" db:"-"`
}

// Overdue reports whether the task has a deadline in the past and is not
// yet approved.
func (t Task) Overdue(now time.Time) bool {
	return t.Deadline != nil && t.Deadline.Before(now) && t.Status != StatusApproved
}
