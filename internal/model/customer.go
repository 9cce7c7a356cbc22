package model

import "time"

// Customer is a tracked customer record. Customers are identified for
// workflow purposes by the tuple (interview_id, line_name, real_name);
// interview_id alone may legitimately collide across re-entries, and the
// reconciliation flow decides reuse versus creation at entry time.
type Customer struct {
	ID string `json:"id" db:"id"`

	// InterviewID is the external intake identifier, not unique on its own.
	InterviewID string `json:"interview_id" db:"interview_id"`

	// LineName is the customer's messaging handle.
	LineName string `json:"line_name" db:"line_name"`

	// RealName is the customer's legal name.
	RealName string `json:"real_name" db:"real_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SameIdentity reports whether the candidate fields match this record
// exactly on all three identity fields.
func (c Customer) SameIdentity(interviewID, lineName, realName string) bool {
	return c.InterviewID == interviewID &&
		c.LineName == lineName &&
		c.RealName == realName
}
