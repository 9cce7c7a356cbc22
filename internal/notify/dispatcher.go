// Package notify translates task and thread lifecycle events into
// persisted notifications and serves each user's notification feed.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/store"
)

// Event is a task or thread lifecycle occurrence worth notifying about.
// Each event knows its recipient and how to render itself.
type Event interface {
	notification() model.Notification
}

// TaskAssigned fires when a task is created and delegated.
type TaskAssigned struct {
	TaskID       string
	AssigneeID   string
	TaskTitle    string
	AssignerName string
}

func (e TaskAssigned) notification() model.Notification {
	msg := fmt.Sprintf("%s assigned you '%s'", e.AssignerName, e.TaskTitle)
	return model.Notification{
		UserID:  e.AssigneeID,
		TaskID:  &e.TaskID,
		Type:    model.NotifyTaskAssigned,
		Title:   "new task assigned",
		Message: &msg,
	}
}

// TaskCompleted fires when the assignee finishes work, addressed to the
// assigner who gates approval.
type TaskCompleted struct {
	TaskID       string
	AssignerID   string
	TaskTitle    string
	AssigneeName string
}

func (e TaskCompleted) notification() model.Notification {
	msg := fmt.Sprintf("%s completed '%s' (awaiting approval)", e.AssigneeName, e.TaskTitle)
	return model.Notification{
		UserID:  e.AssignerID,
		TaskID:  &e.TaskID,
		Type:    model.NotifyTaskCompleted,
		Title:   "task completed",
		Message: &msg,
	}
}

// TaskApproved fires when the assigner approves completed work.
type TaskApproved struct {
	TaskID     string
	AssigneeID string
	TaskTitle  string
}

func (e TaskApproved) notification() model.Notification {
	msg := fmt.Sprintf("'%s' was approved", e.TaskTitle)
	return model.Notification{
		UserID:  e.AssigneeID,
		TaskID:  &e.TaskID,
		Type:    model.NotifyTaskApproved,
		Title:   "task approved",
		Message: &msg,
	}
}

// TaskRejected fires when the assigner sends completed work back.
type TaskRejected struct {
	TaskID     string
	AssigneeID string
	TaskTitle  string
	Reason     string
}

func (e TaskRejected) notification() model.Notification {
	msg := fmt.Sprintf("'%s' was rejected", e.TaskTitle)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return model.Notification{
		UserID:  e.AssigneeID,
		TaskID:  &e.TaskID,
		Type:    model.NotifyTaskRejected,
		Title:   "task rejected",
		Message: &msg,
	}
}

// ThreadReply fires when someone posts on a task's thread, addressed to
// the other party.
type ThreadReply struct {
	TaskID      string
	RecipientID string
	TaskTitle   string
	SenderName  string
}

func (e ThreadReply) notification() model.Notification {
	msg := fmt.Sprintf("%s replied on '%s'", e.SenderName, e.TaskTitle)
	return model.Notification{
		UserID:  e.RecipientID,
		TaskID:  &e.TaskID,
		Type:    model.NotifyThreadReply,
		Title:   "new message",
		Message: &msg,
	}
}

// Dispatcher persists notifications for lifecycle events. Notifications
// are best-effort: a dispatch failure is logged and swallowed so it never
// aborts the mutation that triggered it.
type Dispatcher struct {
	store  store.Store
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher over the given store. A nil logger
// falls back to slog's default.
func NewDispatcher(s store.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{store: s, logger: logger}
}

// Dispatch persists the notification for the event. It never returns an
// error; failures are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) {
	n := e.notification()
	if _, err := d.store.CreateNotification(ctx, n); err != nil {
		d.logger.Warn("notification dispatch failed",
			"type", string(n.Type),
			"recipient", n.UserID,
			"err", err,
		)
	}
}
