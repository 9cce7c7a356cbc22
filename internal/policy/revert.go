package policy

import (
	"time"

	"github.com/ymori/salesdesk/internal/model"
)

// Transition records one applied status change, used to decide revert
// eligibility.
type Transition struct {
	TaskID  string
	From    model.Status
	To      model.Status
	ActorID string
	At      time.Time
}

// RevertPolicy decides whether the actor may undo the given transition,
// which is always the most recent one recorded for its task. The exact
// rule is a stakeholder decision still under review, so it is pluggable.
type RevertPolicy func(last Transition, actor Actor, now time.Time) bool

// DefaultRevertWindow bounds how long after a transition the default
// policy keeps it revertible.
const DefaultRevertWindow = 15 * time.Minute

// DefaultRevertPolicy allows only the actor who made the last transition
// to revert it, within DefaultRevertWindow of applying it.
func DefaultRevertPolicy(last Transition, actor Actor, now time.Time) bool {
	if actor.UserID != last.ActorID {
		return false
	}
	return now.Sub(last.At) <= DefaultRevertWindow
}
