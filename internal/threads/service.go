// Package threads manages per-task comment logs. Threads are append-only;
// deletes require admin or authorship, the same capability shape the
// status policy uses.
package threads

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/store"
)

// Service orchestrates thread persistence, authorization, and reply
// notifications.
type Service struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	timeout    time.Duration
}

// NewService creates a thread service. timeout bounds every store call.
func NewService(s store.Store, d *notify.Dispatcher, timeout time.Duration) *Service {
	return &Service{store: s, dispatcher: d, timeout: timeout}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Create appends a message to the task's thread as the actor and notifies
// the other party to the task (the assignee, or the assigner when the
// sender is the assignee). Notification is best-effort.
func (s *Service) Create(ctx context.Context, taskID, message string, attachmentURL *string, actor policy.Actor) (*model.TaskThread, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errs.Validation("message", "must not be blank")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("looking up task %s: %w", taskID, err)
	}

	created, err := s.store.CreateThread(ctx, model.TaskThread{
		TaskID:        taskID,
		UserID:        actor.UserID,
		Message:       message,
		AttachmentURL: attachmentURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating thread message: %w", err)
	}

	if recipient := replyRecipient(*task, actor.UserID); recipient != "" {
		sender := actor.UserID
		if created.User != nil {
			sender = created.User.Name
		}
		s.dispatcher.Dispatch(ctx, notify.ThreadReply{
			TaskID:      task.ID,
			RecipientID: recipient,
			TaskTitle:   task.Title,
			SenderName:  sender,
		})
	}

	return created, nil
}

// replyRecipient picks who to notify about a new message: the task's
// assignee, unless the sender is the assignee, then the assigner. A
// self-assigned task where the sender is both parties notifies nobody.
func replyRecipient(task model.Task, senderID string) string {
	if task.AssignedTo != senderID {
		return task.AssignedTo
	}
	if task.AssignedBy != senderID {
		return task.AssignedBy
	}
	return ""
}

// Delete removes a thread message. Only an admin or the author may
// delete; the capability is checked before any mutating store call.
func (s *Service) Delete(ctx context.Context, threadID string, actor policy.Actor) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	th, err := s.store.GetThreadByID(ctx, threadID)
	if err != nil {
		return fmt.Errorf("looking up thread %s: %w", threadID, err)
	}

	if !actor.CanDeleteThread(th.UserID) {
		return errs.Unauthorized("delete thread")
	}

	if err := s.store.DeleteThread(ctx, threadID); err != nil {
		return fmt.Errorf("deleting thread %s: %w", threadID, err)
	}
	return nil
}

// ListByTask returns a task's thread, oldest first, authors expanded.
func (s *Service) ListByTask(ctx context.Context, taskID string) ([]model.TaskThread, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	threads, err := s.store.ListThreadsByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("listing threads for task %s: %w", taskID, err)
	}
	return threads, nil
}
