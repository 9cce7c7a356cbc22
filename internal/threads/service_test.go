package threads_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/store"
	"github.com/ymori/salesdesk/internal/threads"
	"github.com/ymori/salesdesk/tests/testutil"
)

type fixture struct {
	store    *store.SQLiteStore
	svc      *threads.Service
	assignee model.User
	assigner model.User
	admin    model.User
	task     model.Task
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	s := testutil.NewTestStore(t)
	assignee := testutil.SeedUser(t, s, "assignee", model.RoleSales)
	assigner := testutil.SeedUser(t, s, "assigner", model.RoleManager)
	admin := testutil.SeedUser(t, s, "root", model.RoleAdmin)
	customer := testutil.SeedCustomer(t, s, "I1", "L", "R")
	task := testutil.SeedTask(t, s, customer.ID, "call back", assignee.ID, assigner.ID)

	return fixture{
		store:    s,
		svc:      threads.NewService(s, notify.NewDispatcher(s, nil), 5*time.Second),
		assignee: assignee,
		assigner: assigner,
		admin:    admin,
		task:     task,
	}
}

func actor(u model.User) policy.Actor {
	return policy.Actor{UserID: u.ID, Role: u.Role}
}

func TestCreate_appendsAndNotifiesOtherParty(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)

	// Assigner posts: assignee is notified.
	if _, err := f.svc.Create(ctx, f.task.ID, "any progress?", nil, actor(f.assigner)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Assignee replies: assigner is notified.
	if _, err := f.svc.Create(ctx, f.task.ID, "on it", nil, actor(f.assignee)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := f.svc.ListByTask(ctx, f.task.ID)
	if err != nil {
		t.Fatalf("ListByTask: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d messages, want 2", len(list))
	}
	if list[0].Message != "any progress?" || list[1].Message != "on it" {
		t.Fatalf("order: %q then %q", list[0].Message, list[1].Message)
	}
	if list[0].User == nil || list[0].User.Name != "assigner" {
		t.Fatalf("author not expanded: %+v", list[0].User)
	}

	toAssignee, err := f.store.ListNotifications(ctx, f.assignee.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(toAssignee) != 1 || toAssignee[0].Type != model.NotifyThreadReply {
		t.Fatalf("assignee notifications: %+v", toAssignee)
	}

	toAssigner, err := f.store.ListNotifications(ctx, f.assigner.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(toAssigner) != 1 || toAssigner[0].Type != model.NotifyThreadReply {
		t.Fatalf("assigner notifications: %+v", toAssigner)
	}
}

func TestCreate_blankMessage(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)

	_, err := f.svc.Create(ctx, f.task.ID, "   ", nil, actor(f.assignee))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}

func TestDelete_authorization(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)

	th, err := f.svc.Create(ctx, f.task.ID, "to be deleted", nil, actor(f.assignee))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A non-admin non-author cannot delete; the message stays.
	err = f.svc.Delete(ctx, th.ID, actor(f.assigner))
	if !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("got %v, want ErrUnauthorized", err)
	}
	list, err := f.svc.ListByTask(ctx, f.task.ID)
	if err != nil {
		t.Fatalf("ListByTask: %v", err)
	}
	if len(list) != 1 {
		t.Fatal("unauthorized delete must leave the thread in place")
	}

	// The author can.
	if err := f.svc.Delete(ctx, th.ID, actor(f.assignee)); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	// And admin can delete anyone's.
	th2, err := f.svc.Create(ctx, f.task.ID, "another", nil, actor(f.assigner))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.svc.Delete(ctx, th2.ID, actor(f.admin)); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}
