package store_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/store"
	"github.com/ymori/salesdesk/tests/testutil"
)

func TestTaskCRUD_expandsRelations(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	sales := testutil.SeedUser(t, s, "sato", model.RoleSales)
	manager := testutil.SeedUser(t, s, "tanaka", model.RoleManager)
	customer := testutil.SeedCustomer(t, s, "I100", "line-a", "Yamada Taro")

	task := testutil.SeedTask(t, s, customer.ID, "first contact", sales.ID, manager.ID)

	if task.Status != model.StatusPending {
		t.Fatalf("new task status: got %s", task.Status)
	}
	if task.Customer == nil || task.Customer.InterviewID != "I100" {
		t.Fatalf("customer relation not expanded: %+v", task.Customer)
	}
	if task.AssignedToUser == nil || task.AssignedToUser.Name != "sato" {
		t.Fatalf("assignee relation not expanded: %+v", task.AssignedToUser)
	}
	if task.AssignedByUser == nil || task.AssignedByUser.Name != "tanaka" {
		t.Fatalf("assigner relation not expanded: %+v", task.AssignedByUser)
	}

	got, err := s.GetTaskByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskByID: %v", err)
	}
	if got.Title != "first contact" {
		t.Fatalf("title: got %q", got.Title)
	}

	if err := s.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := s.GetTaskByID(ctx, task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("after delete: got %v, want ErrNotFound", err)
	}
}

func TestListTasks_filters(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	u1 := testutil.SeedUser(t, s, "u1", model.RoleSales)
	u2 := testutil.SeedUser(t, s, "u2", model.RoleManager)
	c := testutil.SeedCustomer(t, s, "I1", "L", "R")

	testutil.SeedTask(t, s, c.ID, "a", u1.ID, u2.ID)
	testutil.SeedTask(t, s, c.ID, "b", u2.ID, u1.ID)
	testutil.SeedTask(t, s, c.ID, "c", u1.ID, u1.ID)

	mine, err := s.ListTasks(ctx, store.TaskFilter{AssignedTo: &u1.ID})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("assigned_to filter: got %d tasks", len(mine))
	}

	byMe, err := s.ListTasks(ctx, store.TaskFilter{AssignedBy: &u2.ID})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(byMe) != 1 || byMe[0].Title != "a" {
		t.Fatalf("assigned_by filter: got %+v", byMe)
	}

	pending := string(model.StatusPending)
	all, err := s.ListTasks(ctx, store.TaskFilter{Status: &pending})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("status filter: got %d tasks", len(all))
	}
}

func TestNotificationCRUD_andMarkAllIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	u := testutil.SeedUser(t, s, "recipient", model.RoleSales)

	for i := 0; i < 3; i++ {
		_, err := s.CreateNotification(ctx, model.Notification{
			UserID: u.ID,
			Type:   model.NotifyTaskAssigned,
			Title:  "new task assigned",
		})
		if err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	if err := s.MarkAllNotificationsRead(ctx, u.ID); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	// Second call is a no-op.
	if err := s.MarkAllNotificationsRead(ctx, u.ID); err != nil {
		t.Fatalf("MarkAllNotificationsRead (repeat): %v", err)
	}

	list, err := s.ListNotifications(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d notifications", len(list))
	}
	for _, n := range list {
		if !n.Read {
			t.Fatalf("notification %s still unread", n.ID)
		}
	}
}

func TestCreateNotification_missingRecipient(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	_, err := s.CreateNotification(ctx, model.Notification{
		UserID: "no-such-user",
		Type:   model.NotifyTaskAssigned,
		Title:  "x",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSubscribeInserts_filtersByUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	u1 := testutil.SeedUser(t, s, "n1", model.RoleSales)
	u2 := testutil.SeedUser(t, s, "n2", model.RoleSales)

	sub := s.SubscribeInserts(store.TableNotifications, "user_id", u1.ID)
	defer sub.Unsubscribe()

	if _, err := s.CreateNotification(ctx, model.Notification{
		UserID: u2.ID, Type: model.NotifyTaskApproved, Title: "other",
	}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}
	if _, err := s.CreateNotification(ctx, model.Notification{
		UserID: u1.ID, Type: model.NotifyTaskAssigned, Title: "mine",
	}); err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	select {
	case ev := <-sub.C:
		n, ok := ev.Data.(*model.Notification)
		if !ok {
			t.Fatalf("event payload: %T", ev.Data)
		}
		if n.Title != "mine" || n.UserID != u1.ID {
			t.Fatalf("got event for %+v", n)
		}
	case <-time.After(time.Second):
		t.Fatal("no feed event delivered")
	}

	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected second event: %+v", ev)
	default:
	}
}

func TestCustomerLookupByInterviewID(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	testutil.SeedCustomer(t, s, "I1", "L1", "R1")
	testutil.SeedCustomer(t, s, "I1", "L2", "R2")
	testutil.SeedCustomer(t, s, "I2", "L3", "R3")

	found, err := s.FindCustomersByInterviewID(ctx, "I1")
	if err != nil {
		t.Fatalf("FindCustomersByInterviewID: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("got %d customers, want 2", len(found))
	}
}

func TestGetTask_missingMatchesSharedNotFound(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	_, err := s.GetTaskByID(ctx, "no-such-task")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want store.ErrNotFound, got %v", err)
	}
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want errs.ErrNotFound, got %v", err)
	}
}

func TestUpdateUser_doesNotChangeRole(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	u := testutil.SeedUser(t, s, "sato", model.RoleSales)

	u.Name = "sato-renamed"
	u.Role = model.RoleAdmin
	if err := s.UpdateUser(ctx, u); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Name != "sato-renamed" {
		t.Errorf("name = %q, want rename applied", got.Name)
	}
	if got.Role != model.RoleSales {
		t.Errorf("role = %q, want unchanged sales role", got.Role)
	}

	if err := s.UpdateUserRole(ctx, u.ID, model.RoleManager); err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	got, err = s.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Role != model.RoleManager {
		t.Errorf("role = %q, want manager after role update", got.Role)
	}

	if err := s.UpdateUserRole(ctx, "no-such-user", model.RoleManager); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing user: want store.ErrNotFound, got %v", err)
	}
}
