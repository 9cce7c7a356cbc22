// Package policy implements the task status workflow and the actor
// capability checks shared by task transitions and thread authorization.
package policy

import "github.com/ymori/salesdesk/internal/model"

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID string
	Role   model.Role
}

// TaskRef carries the two task relations the policy needs.
type TaskRef struct {
	AssignedTo string
	AssignedBy string
}

// Ref extracts a TaskRef from a task.
func Ref(t model.Task) TaskRef {
	return TaskRef{AssignedTo: t.AssignedTo, AssignedBy: t.AssignedBy}
}

// IsAssignee reports whether the actor is the task's assignee.
func (a Actor) IsAssignee(t TaskRef) bool {
	return a.UserID == t.AssignedTo
}

// IsAssigner reports whether the actor is the task's assigner. Admins have
// assigner-class authority over every task regardless of relation.
func (a Actor) IsAssigner(t TaskRef) bool {
	return a.UserID == t.AssignedBy || a.Role == model.RoleAdmin
}

// CanManageTask reports whether the actor may act on the task at all.
// Admins manage everything; managers and sales only tasks they are party to.
func (a Actor) CanManageTask(t TaskRef) bool {
	if a.Role == model.RoleAdmin {
		return true
	}
	return a.UserID == t.AssignedTo || a.UserID == t.AssignedBy
}

// CanDeleteThread reports whether the actor may delete a thread message:
// admins, or the message author.
func (a Actor) CanDeleteThread(authorID string) bool {
	return a.Role == model.RoleAdmin || a.UserID == authorID
}
