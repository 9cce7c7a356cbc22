package policy

import (
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/ymori/salesdesk/internal/model"
)

var ref = TaskRef{AssignedTo: "u-assignee", AssignedBy: "u-assigner"}

var (
	assignee  = Actor{UserID: "u-assignee", Role: model.RoleSales}
	assigner  = Actor{UserID: "u-assigner", Role: model.RoleManager}
	admin     = Actor{UserID: "u-admin", Role: model.RoleAdmin}
	unrelated = Actor{UserID: "u-other", Role: model.RoleSales}
)

func sorted(ss []model.Status) []model.Status {
	out := append([]model.Status(nil), ss...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestLegalNextStates_fullTable(t *testing.T) {
	cases := []struct {
		name    string
		current model.Status
		actor   Actor
		want    []model.Status
	}{
		{"assignee pending", model.StatusPending, assignee, []model.Status{model.StatusInProgress}},
		{"assignee in_progress", model.StatusInProgress, assignee, []model.Status{model.StatusCompleted}},
		{"assignee completed", model.StatusCompleted, assignee, nil},
		{"assignee rejected", model.StatusRejected, assignee, []model.Status{model.StatusInProgress}},
		{"assignee approved", model.StatusApproved, assignee, nil},

		{"assigner pending", model.StatusPending, assigner, nil},
		{"assigner in_progress", model.StatusInProgress, assigner, nil},
		{"assigner completed", model.StatusCompleted, assigner, []model.Status{model.StatusApproved, model.StatusRejected}},
		{"assigner rejected", model.StatusRejected, assigner, nil},
		{"assigner approved", model.StatusApproved, assigner, nil},

		{"admin completed", model.StatusCompleted, admin, []model.Status{model.StatusApproved, model.StatusRejected}},
		{"admin pending", model.StatusPending, admin, nil},
		{"admin approved", model.StatusApproved, admin, nil},

		{"unrelated pending", model.StatusPending, unrelated, nil},
		{"unrelated completed", model.StatusCompleted, unrelated, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LegalNextStates(tc.current, tc.actor, ref)
			if !reflect.DeepEqual(sorted(got), sorted(tc.want)) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLegalNextStates_selfAssignment(t *testing.T) {
	self := TaskRef{AssignedTo: "u1", AssignedBy: "u1"}
	actor := Actor{UserID: "u1", Role: model.RoleSales}

	// Self-assigned tasks grant both assignee and assigner authority.
	got := LegalNextStates(model.StatusCompleted, actor, self)
	want := []model.Status{model.StatusApproved, model.StatusRejected}
	if !reflect.DeepEqual(sorted(got), sorted(want)) {
		t.Fatalf("completed: got %v, want %v", got, want)
	}

	if !Allowed(model.StatusPending, model.StatusInProgress, actor, self) {
		t.Fatal("self-assigned actor should start their own task")
	}
}

func TestAllowed_rejectsSkippingStates(t *testing.T) {
	if Allowed(model.StatusPending, model.StatusApproved, assignee, ref) {
		t.Fatal("pending -> approved must not be allowed for assignee")
	}
	if Allowed(model.StatusPending, model.StatusCompleted, assignee, ref) {
		t.Fatal("pending -> completed must not be allowed")
	}
	if Allowed(model.StatusCompleted, model.StatusApproved, assignee, ref) {
		t.Fatal("assignee must not approve their own work")
	}
}

func TestAdminHasNoAssigneeAuthority(t *testing.T) {
	// Admins gate approvals everywhere but cannot advance work state on
	// tasks they are not assigned to.
	if Allowed(model.StatusPending, model.StatusInProgress, admin, ref) {
		t.Fatal("admin must not start an unrelated task")
	}
	if Allowed(model.StatusInProgress, model.StatusCompleted, admin, ref) {
		t.Fatal("admin must not complete an unrelated task")
	}
}

func TestDefaultRevertPolicy(t *testing.T) {
	now := time.Now()
	last := Transition{
		TaskID:  "t1",
		From:    model.StatusPending,
		To:      model.StatusInProgress,
		ActorID: "u-assignee",
		At:      now.Add(-time.Minute),
	}

	if !DefaultRevertPolicy(last, assignee, now) {
		t.Fatal("actor who made the transition should be able to revert")
	}
	if DefaultRevertPolicy(last, assigner, now) {
		t.Fatal("a different actor must not revert")
	}

	stale := last
	stale.At = now.Add(-DefaultRevertWindow - time.Second)
	if DefaultRevertPolicy(stale, assignee, now) {
		t.Fatal("revert outside the window must be denied")
	}
}

func TestCapabilityPredicates(t *testing.T) {
	if !admin.IsAssigner(ref) {
		t.Fatal("admin has assigner-class authority on every task")
	}
	if admin.IsAssignee(ref) {
		t.Fatal("admin is not the assignee")
	}
	if !assigner.CanManageTask(ref) || !assignee.CanManageTask(ref) {
		t.Fatal("parties to a task can manage it")
	}
	if unrelated.CanManageTask(ref) {
		t.Fatal("unrelated non-admin cannot manage the task")
	}

	if !admin.CanDeleteThread("someone-else") {
		t.Fatal("admin may delete any thread message")
	}
	if !unrelated.CanDeleteThread(unrelated.UserID) {
		t.Fatal("author may delete their own message")
	}
	if unrelated.CanDeleteThread("someone-else") {
		t.Fatal("non-admin non-author may not delete")
	}
}
