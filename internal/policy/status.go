package policy

import "github.com/ymori/salesdesk/internal/model"

// LegalNextStates returns the set of statuses the actor may move the task
// to from current. It is pure and total: a terminal status or an unrelated
// actor yields an empty set.
//
// The assignee drives forward progress (start, finish); the assigner gates
// the quality checkpoint once work is completed. A rejected task loops back
// to in_progress directly, with no second acknowledge step.
func LegalNextStates(current model.Status, actor Actor, t TaskRef) []model.Status {
	assignee := actor.IsAssignee(t)
	assigner := actor.IsAssigner(t)

	var next []model.Status

	if assignee {
		switch current {
		case model.StatusPending:
			next = append(next, model.StatusInProgress)
		case model.StatusInProgress:
			next = append(next, model.StatusCompleted)
		case model.StatusRejected:
			next = append(next, model.StatusInProgress)
		}
	}

	if assigner && current == model.StatusCompleted {
		next = append(next, model.StatusApproved, model.StatusRejected)
	}

	return next
}

// Allowed reports whether the actor may move the task from current to next.
func Allowed(current, next model.Status, actor Actor, t TaskRef) bool {
	for _, s := range LegalNextStates(current, actor, t) {
		if s == next {
			return true
		}
	}
	return false
}
