package tasks_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/store"
	"github.com/ymori/salesdesk/internal/tasks"
	"github.com/ymori/salesdesk/tests/testutil"
)

type fixture struct {
	store    *store.SQLiteStore
	svc      *tasks.Service
	assignee model.User
	assigner model.User
	customer model.Customer
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	s := testutil.NewTestStore(t)
	assignee := testutil.SeedUser(t, s, "assignee", model.RoleSales)
	assigner := testutil.SeedUser(t, s, "assigner", model.RoleManager)
	customer := testutil.SeedCustomer(t, s, "I1", "L", "R")

	return fixture{
		store:    s,
		svc:      tasks.NewService(s, notify.NewDispatcher(s, nil), nil, 5*time.Second),
		assignee: assignee,
		assigner: assigner,
		customer: customer,
	}
}

func actor(u model.User) policy.Actor {
	return policy.Actor{UserID: u.ID, Role: u.Role}
}

func (f fixture) create(t *testing.T) *model.Task {
	t.Helper()

	task, err := f.svc.Create(testutil.Ctx(t), tasks.CreateParams{
		CustomerID: f.customer.ID,
		Title:      "follow up",
		AssignedTo: f.assignee.ID,
		AssignedBy: f.assigner.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return task
}

func TestCreate_notifiesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)

	task := f.create(t)
	if task.Status != model.StatusPending {
		t.Fatalf("status: got %s", task.Status)
	}

	list, err := f.store.ListNotifications(ctx, f.assignee.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 1 || list[0].Type != model.NotifyTaskAssigned {
		t.Fatalf("assignee notifications: %+v", list)
	}
	if list[0].TaskID == nil || *list[0].TaskID != task.ID {
		t.Fatalf("notification task id: %+v", list[0].TaskID)
	}
}

func TestCreate_validation(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)

	_, err := f.svc.Create(ctx, tasks.CreateParams{
		CustomerID: f.customer.ID,
		Title:      "  ",
		AssignedTo: f.assignee.ID,
		AssignedBy: f.assigner.ID,
	})
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("blank title: got %v, want ErrValidation", err)
	}

	_, err = f.svc.Create(ctx, tasks.CreateParams{
		CustomerID: "missing",
		Title:      "x",
		AssignedTo: f.assignee.ID,
		AssignedBy: f.assigner.ID,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing customer: got %v, want ErrNotFound", err)
	}
}

func TestUpdateStatus_fullWorkflowNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)
	task := f.create(t)

	// Assignee drives the work forward. Starting produces no notification.
	if _, err := f.svc.UpdateStatus(ctx, task.ID, actor(f.assignee), model.StatusInProgress); err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, task.ID, actor(f.assignee), model.StatusCompleted); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}

	toAssigner, err := f.store.ListNotifications(ctx, f.assigner.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(toAssigner) != 1 || toAssigner[0].Type != model.NotifyTaskCompleted {
		t.Fatalf("assigner should get exactly one task_completed: %+v", toAssigner)
	}

	if _, err := f.svc.UpdateStatus(ctx, task.ID, actor(f.assigner), model.StatusApproved); err != nil {
		t.Fatalf("completed -> approved: %v", err)
	}

	toAssignee, err := f.store.ListNotifications(ctx, f.assignee.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	var approved int
	for _, n := range toAssignee {
		if n.Type == model.NotifyTaskApproved {
			approved++
		}
	}
	if approved != 1 {
		t.Fatalf("assignee should get exactly one task_approved: %+v", toAssignee)
	}
}

func TestUpdateStatus_invalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)
	task := f.create(t)

	_, err := f.svc.UpdateStatus(ctx, task.ID, actor(f.assignee), model.StatusApproved)
	if !errors.Is(err, errs.ErrInvalidTransition) {
		t.Fatalf("pending -> approved: got %v, want ErrInvalidTransition", err)
	}

	// The store was never touched: status is unchanged.
	got, err := f.store.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID: %v", err)
	}
	if got.Status != model.StatusPending {
		t.Fatalf("status after rejected request: %s", got.Status)
	}

	_, err = f.svc.UpdateStatus(ctx, task.ID, actor(f.assignee), model.Status("bogus"))
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("unknown status: got %v, want ErrValidation", err)
	}
}

func TestUpdateStatus_rejectionLoopIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)
	task := f.create(t)

	mustUpdate := func(a policy.Actor, st model.Status) {
		t.Helper()
		if _, err := f.svc.UpdateStatus(ctx, task.ID, a, st); err != nil {
			t.Fatalf("-> %s: %v", st, err)
		}
	}

	mustUpdate(actor(f.assignee), model.StatusInProgress)
	mustUpdate(actor(f.assignee), model.StatusCompleted)
	mustUpdate(actor(f.assigner), model.StatusRejected)

	toAssignee, err := f.store.ListNotifications(ctx, f.assignee.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	var rejected int
	for _, n := range toAssignee {
		if n.Type == model.NotifyTaskRejected {
			rejected++
		}
	}
	if rejected != 1 {
		t.Fatalf("want exactly one task_rejected: %+v", toAssignee)
	}

	before := len(toAssignee)

	// Rework: rejected -> in_progress produces no notification.
	mustUpdate(actor(f.assignee), model.StatusInProgress)

	after, err := f.store.ListNotifications(ctx, f.assignee.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(after) != before {
		t.Fatalf("rework transition must be silent: %d -> %d", before, len(after))
	}
}

func TestRevert_defaultPolicy(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)
	task := f.create(t)

	if f.svc.CanRevert(task.ID, actor(f.assignee)) {
		t.Fatal("nothing to revert yet")
	}

	if _, err := f.svc.UpdateStatus(ctx, task.ID, actor(f.assignee), model.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if !f.svc.CanRevert(task.ID, actor(f.assignee)) {
		t.Fatal("transition actor should be able to revert")
	}
	if f.svc.CanRevert(task.ID, actor(f.assigner)) {
		t.Fatal("another actor must not revert")
	}

	reverted, err := f.svc.Revert(ctx, task.ID, actor(f.assignee))
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted.Status != model.StatusPending {
		t.Fatalf("status after revert: %s", reverted.Status)
	}

	// A revert consumes the history entry.
	if f.svc.CanRevert(task.ID, actor(f.assignee)) {
		t.Fatal("revert is single-shot")
	}
	if _, err := f.svc.Revert(ctx, task.ID, actor(f.assignee)); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("second revert: got %v, want ErrUnauthorized", err)
	}
}

func TestProjections(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)

	t1 := f.create(t)
	if _, err := f.svc.Create(ctx, tasks.CreateParams{
		CustomerID: f.customer.ID,
		Title:      "reverse",
		AssignedTo: f.assigner.ID,
		AssignedBy: f.assignee.ID,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := f.svc.Mine(actor(f.assignee)); len(got) != 1 || got[0].ID != t1.ID {
		t.Fatalf("Mine: %+v", got)
	}
	if got := f.svc.AssignedByMe(actor(f.assigner)); len(got) != 1 || got[0].ID != t1.ID {
		t.Fatalf("AssignedByMe: %+v", got)
	}
	if got := f.svc.ByStatus(model.StatusPending); len(got) != 2 {
		t.Fatalf("ByStatus: %d", len(got))
	}
	if got := f.svc.All(); len(got) != 2 {
		t.Fatalf("All: %d", len(got))
	}
}

func TestUpdateFields_noNotification(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)
	task := f.create(t)

	newTitle := "renamed"
	deadline := time.Now().Add(24 * time.Hour).UTC()
	updated, err := f.svc.UpdateFields(ctx, task.ID, tasks.FieldPatch{
		Title:    &newTitle,
		Deadline: &deadline,
	})
	if err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if updated.Title != "renamed" || updated.Deadline == nil {
		t.Fatalf("updated: %+v", updated)
	}

	list, err := f.store.ListNotifications(ctx, f.assignee.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 1 { // only the original task_assigned
		t.Fatalf("field update must not notify: %+v", list)
	}
}

func TestDelete_requiresManagement(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx(t)
	task := f.create(t)

	outsider := testutil.SeedUser(t, f.store, "outsider", model.RoleSales)
	if err := f.svc.Delete(ctx, task.ID, actor(outsider)); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("outsider delete: got %v, want ErrUnauthorized", err)
	}

	if err := f.svc.Delete(ctx, task.ID, actor(f.assigner)); err != nil {
		t.Fatalf("assigner delete: %v", err)
	}
	if _, ok := f.svc.Get(task.ID); ok {
		t.Fatal("mirror still holds deleted task")
	}
}
