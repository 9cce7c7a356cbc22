// Package customers manages customer records and the entry-time
// reconciliation heuristic that decides reuse versus creation.
package customers

import "github.com/ymori/salesdesk/internal/model"

// DecisionKind classifies the outcome of reconciling a candidate entry
// against the existing records sharing its interview id.
type DecisionKind int

const (
	// DecisionReuse: an existing record matches all three identity
	// fields; use it, create nothing.
	DecisionReuse DecisionKind = iota

	// DecisionAutofill: exactly one record shares the interview id and
	// the input names are still blank; suggest its names, create nothing.
	DecisionAutofill

	// DecisionConflict: records share the interview id but differ from
	// the input; the caller must confirm an intentional duplicate.
	DecisionConflict

	// DecisionCreate: no record shares the interview id; create freely.
	DecisionCreate
)

// Decision is the reconciliation verdict for a candidate entry.
type Decision struct {
	Kind DecisionKind

	// Existing is the matched record for DecisionReuse, or the autofill
	// source for DecisionAutofill.
	Existing *model.Customer

	// Conflicts holds the clashing records for DecisionConflict.
	Conflicts []model.Customer
}

// Candidate is a proposed customer entry before reconciliation.
type Candidate struct {
	InterviewID string
	LineName    string
	RealName    string
}

// Reconcile decides what to do with a candidate entry given the existing
// customers sharing its interview id. Pure: it performs no store calls
// and never fails. This is a human-in-the-loop dedup heuristic, not a
// uniqueness constraint; intentional duplicates are allowed after the
// caller confirms a conflict.
func Reconcile(c Candidate, existing []model.Customer) Decision {
	for i := range existing {
		if existing[i].SameIdentity(c.InterviewID, c.LineName, c.RealName) {
			return Decision{Kind: DecisionReuse, Existing: &existing[i]}
		}
	}

	if len(existing) == 1 && c.LineName == "" && c.RealName == "" {
		return Decision{Kind: DecisionAutofill, Existing: &existing[0]}
	}

	if len(existing) > 0 {
		return Decision{Kind: DecisionConflict, Conflicts: existing}
	}

	return Decision{Kind: DecisionCreate}
}
