package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ymori/salesdesk/internal/blob"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/tasks"
	"github.com/ymori/salesdesk/internal/ui/commentform"
	"github.com/ymori/salesdesk/internal/ui/detail"
)

// sessionRestoredMsg carries the user from a persisted session, if any.
type sessionRestoredMsg struct {
	user *model.User
}

// boardLoadedMsg reports the result of refreshing the task board.
type boardLoadedMsg struct {
	err error
}

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// notificationArrivedMsg is sent when the insert feed delivers a
// notification for the signed-in user.
type notificationArrivedMsg struct{}

// taskActedMsg reports the result of a task mutation. taskID is set when
// the detail view should be refreshed in place.
type taskActedMsg struct {
	taskID string
	err    error
}

// formOptionsLoadedMsg carries the selector options for the task form and,
// for edits, the task being edited.
type formOptionsLoadedMsg struct {
	customers []model.Customer
	users     []model.User
	edit      *model.Task
}

// restoreSession checks for a persisted session and skips the login gate
// when one is still valid.
func (m Model) restoreSession() tea.Cmd {
	provider := m.deps.Auth
	return func() tea.Msg {
		user, err := provider.CurrentUser(context.Background())
		if err != nil {
			return sessionRestoredMsg{user: nil}
		}
		return sessionRestoredMsg{user: user}
	}
}

// loadBoard refreshes the task board from the store.
func (m Model) loadBoard() tea.Cmd {
	svc := m.deps.Tasks
	return func() tea.Msg {
		return boardLoadedMsg{err: svc.Load(context.Background())}
	}
}

// fetchUnreadCount queries the unread notification count for the badge.
func (m Model) fetchUnreadCount() tea.Cmd {
	center := m.center
	return func() tea.Msg {
		if center == nil {
			return unreadCountMsg{count: 0}
		}
		count, err := center.UnreadCount(context.Background())
		if err != nil {
			return unreadCountMsg{count: 0}
		}
		return unreadCountMsg{count: count}
	}
}

// waitForNotification blocks on the insert feed until a notification for
// the signed-in user arrives.
func (m Model) waitForNotification() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if sub == nil {
			return nil
		}
		if _, ok := <-sub.C; !ok {
			return nil
		}
		return notificationArrivedMsg{}
	}
}

// loadTaskDetail loads a task and its thread for the detail view.
func (m Model) loadTaskDetail(taskID string) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := context.Background()
		task, err := deps.Store.GetTaskByID(ctx, taskID)
		if err != nil {
			return detail.DetailLoadedMsg{Task: nil}
		}
		thread, err := deps.Threads.ListByTask(ctx, taskID)
		if err != nil {
			thread = nil
		}
		return detail.DetailLoadedMsg{Task: task, Thread: thread}
	}
}

// advanceStatus moves a task one step along the assignee's forward chain
// (pending to in_progress, in_progress to completed, rejected back to
// in_progress). Approval and rejection have their own actions.
func (m Model) advanceStatus(taskID string) tea.Cmd {
	svc := m.deps.Tasks
	actor := m.actor
	return func() tea.Msg {
		task, ok := svc.Get(taskID)
		if !ok {
			return taskActedMsg{taskID: taskID}
		}

		for _, next := range policy.LegalNextStates(task.Status, actor, policy.Ref(task)) {
			if next == model.StatusInProgress || next == model.StatusCompleted {
				_, err := svc.UpdateStatus(context.Background(), taskID, actor, next)
				return taskActedMsg{taskID: taskID, err: err}
			}
		}
		return taskActedMsg{taskID: taskID}
	}
}

// applyStatus requests a specific status transition for the task.
func (m Model) applyStatus(taskID string, status model.Status) tea.Cmd {
	svc := m.deps.Tasks
	actor := m.actor
	return func() tea.Msg {
		_, err := svc.UpdateStatus(context.Background(), taskID, actor, status)
		return taskActedMsg{taskID: taskID, err: err}
	}
}

// revertStatus undoes the task's most recent transition when the revert
// policy allows it.
func (m Model) revertStatus(taskID string) tea.Cmd {
	svc := m.deps.Tasks
	actor := m.actor
	return func() tea.Msg {
		_, err := svc.Revert(context.Background(), taskID, actor)
		return taskActedMsg{taskID: taskID, err: err}
	}
}

// deleteTask removes the task and returns to the list.
func (m Model) deleteTask(taskID string) tea.Cmd {
	svc := m.deps.Tasks
	actor := m.actor
	return func() tea.Msg {
		err := svc.Delete(context.Background(), taskID, actor)
		return taskActedMsg{err: err}
	}
}

// createTask persists a new task from the form.
func (m Model) createTask(params tasks.CreateParams) tea.Cmd {
	svc := m.deps.Tasks
	return func() tea.Msg {
		_, err := svc.Create(context.Background(), params)
		return taskActedMsg{err: err}
	}
}

// updateTaskFields applies a non-status edit from the form.
func (m Model) updateTaskFields(taskID string, patch tasks.FieldPatch) tea.Cmd {
	svc := m.deps.Tasks
	return func() tea.Msg {
		_, err := svc.UpdateFields(context.Background(), taskID, patch)
		return taskActedMsg{err: err}
	}
}

// createComment appends a thread message as the signed-in user. A local
// file path in the attachment field is uploaded to object storage first
// and replaced by the stored object's URL.
func (m Model) createComment(msg commentform.CommentSubmittedMsg) tea.Cmd {
	deps := m.deps
	actor := m.actor
	return func() tea.Msg {
		ctx := context.Background()

		attachmentURL := msg.AttachmentURL
		if attachmentURL != nil && !strings.HasPrefix(*attachmentURL, "http") {
			url, err := uploadAttachment(ctx, deps.Blob, msg.TaskID, *attachmentURL)
			if err != nil {
				return taskActedMsg{taskID: msg.TaskID, err: err}
			}
			attachmentURL = &url
		}

		_, err := deps.Threads.Create(
			ctx,
			msg.TaskID, msg.Message, attachmentURL, actor,
		)
		return taskActedMsg{taskID: msg.TaskID, err: err}
	}
}

// uploadAttachment reads a local file and stores it under the task's
// attachment prefix.
func uploadAttachment(ctx context.Context, storage blob.Storage, taskID, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading attachment %s: %w", path, err)
	}
	return storage.Upload(ctx, filepath.Join("threads", taskID, filepath.Base(path)), data)
}

// loadFormOptions fetches the customer and assignee selector options, then
// opens the task form. A non-nil edit opens it prefilled.
func (m Model) loadFormOptions(edit *model.Task) tea.Cmd {
	deps := m.deps
	return func() tea.Msg {
		ctx := context.Background()
		custs, err := deps.Customers.List(ctx)
		if err != nil {
			custs = nil
		}
		users, err := deps.Store.ListUsers(ctx)
		if err != nil {
			users = nil
		}
		return formOptionsLoadedMsg{customers: custs, users: users, edit: edit}
	}
}

// quit tears down the feed subscription before exiting.
func (m Model) quit() tea.Cmd {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
	return tea.Quit
}
