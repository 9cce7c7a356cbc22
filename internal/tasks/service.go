// Package tasks orchestrates the task workflow: creation, status
// transitions through the policy, field updates, deletion, and the
// session's in-memory mirror of the task set.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/store"
)

// Service holds the session's task mirror and coordinates mutations
// against the store. All dependencies are injected; nothing here is
// global.
type Service struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	revert     policy.RevertPolicy
	timeout    time.Duration
	now        func() time.Time

	mu      sync.Mutex
	mirror  cache
	history map[string]policy.Transition // last applied transition per task
}

// NewService creates a task service. A nil revert policy falls back to
// the default. timeout bounds every store call.
func NewService(s store.Store, d *notify.Dispatcher, revert policy.RevertPolicy, timeout time.Duration) *Service {
	if revert == nil {
		revert = policy.DefaultRevertPolicy
	}
	return &Service{
		store:      s,
		dispatcher: d,
		revert:     revert,
		timeout:    timeout,
		now:        time.Now,
		history:    make(map[string]policy.Transition),
	}
}

func (s *Service) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Load fetches the full task set into the mirror.
func (s *Service) Load(ctx context.Context) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	all, err := s.store.ListTasks(ctx, store.TaskFilter{SortDesc: true})
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	s.mu.Lock()
	s.mirror.replaceAll(all)
	s.mu.Unlock()

	return nil
}

// CreateParams are the inputs for creating a task.
type CreateParams struct {
	CustomerID  string
	Title       string
	Description string
	AssignedTo  string
	AssignedBy  string
	Deadline    *time.Time
}

// Create validates references, persists a new pending task, mirrors it,
// and notifies the assignee. The notification is best-effort and never
// fails the creation.
func (s *Service) Create(ctx context.Context, p CreateParams) (*model.Task, error) {
	if strings.TrimSpace(p.Title) == "" {
		return nil, errs.Validation("title", "must not be blank")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if _, err := s.store.GetCustomerByID(ctx, p.CustomerID); err != nil {
		return nil, fmt.Errorf("customer %s: %w", p.CustomerID, err)
	}
	if _, err := s.store.GetUserByID(ctx, p.AssignedTo); err != nil {
		return nil, fmt.Errorf("assignee %s: %w", p.AssignedTo, err)
	}
	if _, err := s.store.GetUserByID(ctx, p.AssignedBy); err != nil {
		return nil, fmt.Errorf("assigner %s: %w", p.AssignedBy, err)
	}

	created, err := s.store.CreateTask(ctx, model.Task{
		CustomerID:  p.CustomerID,
		Title:       p.Title,
		Description: p.Description,
		Status:      model.StatusPending,
		Deadline:    p.Deadline,
		AssignedTo:  p.AssignedTo,
		AssignedBy:  p.AssignedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.mu.Lock()
	s.mirror.upsert(*created)
	s.mu.Unlock()

	assignerName := created.AssignedBy
	if created.AssignedByUser != nil {
		assignerName = created.AssignedByUser.Name
	}
	s.dispatcher.Dispatch(ctx, notify.TaskAssigned{
		TaskID:       created.ID,
		AssigneeID:   created.AssignedTo,
		TaskTitle:    created.Title,
		AssignerName: assignerName,
	})

	return created, nil
}

// UpdateStatus moves a task to newStatus on behalf of the actor. The
// policy check runs before the store call; an illegal request costs no
// round-trip. On success the mirror is updated, the transition recorded
// for revert, and exactly one notification dispatched for completed,
// approved, and rejected transitions.
func (s *Service) UpdateStatus(ctx context.Context, taskID string, actor policy.Actor, newStatus model.Status) (*model.Task, error) {
	if !model.ValidStatus(newStatus) {
		return nil, errs.Validation("status", "unknown value "+string(newStatus))
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("looking up task %s: %w", taskID, err)
	}

	if !policy.Allowed(task.Status, newStatus, actor, policy.Ref(*task)) {
		return nil, errs.InvalidTransition(string(task.Status), string(newStatus))
	}

	from := task.Status
	task.Status = newStatus
	updated, err := s.store.UpdateTask(ctx, *task)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}

	s.mu.Lock()
	s.mirror.upsert(*updated)
	s.history[taskID] = policy.Transition{
		TaskID:  taskID,
		From:    from,
		To:      newStatus,
		ActorID: actor.UserID,
		At:      s.now(),
	}
	s.mu.Unlock()

	s.notifyTransition(ctx, *updated, newStatus)

	return updated, nil
}

// notifyTransition dispatches the single notification a status change
// produces. Moves to in_progress, forward or via the rejection loop, are
// silent.
func (s *Service) notifyTransition(ctx context.Context, task model.Task, newStatus model.Status) {
	assigneeName := task.AssignedTo
	if task.AssignedToUser != nil {
		assigneeName = task.AssignedToUser.Name
	}

	switch newStatus {
	case model.StatusCompleted:
		s.dispatcher.Dispatch(ctx, notify.TaskCompleted{
			TaskID:       task.ID,
			AssignerID:   task.AssignedBy,
			TaskTitle:    task.Title,
			AssigneeName: assigneeName,
		})
	case model.StatusApproved:
		s.dispatcher.Dispatch(ctx, notify.TaskApproved{
			TaskID:     task.ID,
			AssigneeID: task.AssignedTo,
			TaskTitle:  task.Title,
		})
	case model.StatusRejected:
		s.dispatcher.Dispatch(ctx, notify.TaskRejected{
			TaskID:     task.ID,
			AssigneeID: task.AssignedTo,
			TaskTitle:  task.Title,
		})
	}
}

// CanRevert reports whether the actor may undo the task's most recent
// status transition under the configured revert policy.
func (s *Service) CanRevert(taskID string, actor policy.Actor) bool {
	s.mu.Lock()
	last, ok := s.history[taskID]
	s.mu.Unlock()

	if !ok {
		return false
	}
	return s.revert(last, actor, s.now())
}

// Revert undoes the task's most recent status transition, restoring the
// status it moved from. Reverts produce no notification.
func (s *Service) Revert(ctx context.Context, taskID string, actor policy.Actor) (*model.Task, error) {
	s.mu.Lock()
	last, ok := s.history[taskID]
	s.mu.Unlock()

	if !ok || !s.revert(last, actor, s.now()) {
		return nil, errs.Unauthorized("revert status")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("looking up task %s: %w", taskID, err)
	}

	task.Status = last.From
	updated, err := s.store.UpdateTask(ctx, *task)
	if err != nil {
		return nil, fmt.Errorf("reverting task %s: %w", taskID, err)
	}

	s.mu.Lock()
	s.mirror.upsert(*updated)
	delete(s.history, taskID)
	s.mu.Unlock()

	return updated, nil
}

// FieldPatch is a partial non-status update. Nil fields are left alone.
type FieldPatch struct {
	Title         *string
	Description   *string
	Deadline      *time.Time
	ClearDeadline bool
	AssignedTo    *string
	AssignedBy    *string
}

// UpdateFields applies a partial update to a task's non-status fields.
// No notification is produced.
func (s *Service) UpdateFields(ctx context.Context, taskID string, patch FieldPatch) (*model.Task, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("looking up task %s: %w", taskID, err)
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, errs.Validation("title", "must not be blank")
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.ClearDeadline {
		task.Deadline = nil
	} else if patch.Deadline != nil {
		task.Deadline = patch.Deadline
	}
	if patch.AssignedTo != nil {
		if _, err := s.store.GetUserByID(ctx, *patch.AssignedTo); err != nil {
			return nil, fmt.Errorf("assignee %s: %w", *patch.AssignedTo, err)
		}
		task.AssignedTo = *patch.AssignedTo
	}
	if patch.AssignedBy != nil {
		if _, err := s.store.GetUserByID(ctx, *patch.AssignedBy); err != nil {
			return nil, fmt.Errorf("assigner %s: %w", *patch.AssignedBy, err)
		}
		task.AssignedBy = *patch.AssignedBy
	}

	updated, err := s.store.UpdateTask(ctx, *task)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", taskID, err)
	}

	s.mu.Lock()
	s.mirror.upsert(*updated)
	s.mu.Unlock()

	return updated, nil
}

// Delete removes a task the actor manages. Threads and notifications
// referencing it are not cascaded.
func (s *Service) Delete(ctx context.Context, taskID string, actor policy.Actor) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("looking up task %s: %w", taskID, err)
	}

	if !actor.CanManageTask(policy.Ref(*task)) {
		return errs.Unauthorized("delete task")
	}

	if err := s.store.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("deleting task %s: %w", taskID, err)
	}

	s.mu.Lock()
	s.mirror.remove(taskID)
	delete(s.history, taskID)
	s.mu.Unlock()

	return nil
}

// Get returns the mirrored task with the given id.
func (s *Service) Get(taskID string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.get(taskID)
}

// All returns every mirrored task, newest first.
func (s *Service) All() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.all()
}

// Mine returns the mirrored tasks assigned to the actor.
func (s *Service) Mine(actor policy.Actor) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.filter(func(t model.Task) bool {
		return t.AssignedTo == actor.UserID
	})
}

// AssignedByMe returns the mirrored tasks the actor delegated.
func (s *Service) AssignedByMe(actor policy.Actor) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.filter(func(t model.Task) bool {
		return t.AssignedBy == actor.UserID
	})
}

// ByStatus returns the mirrored tasks in the given status.
func (s *Service) ByStatus(status model.Status) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mirror.filter(func(t model.Task) bool {
		return t.Status == status
	})
}
