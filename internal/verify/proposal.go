// Package verify implements the crowdsourced verification workflow: field
// proposals submitted by users and adjudicated by moderators.
package verify

import "time"

// Kind classifies what a proposal claims about the target field.
type Kind string

const (
	// KindAddition fills a field that is currently unknown.
	KindAddition Kind = "addition"
	// KindCorrection replaces a known value claimed to be wrong.
	KindCorrection Kind = "correction"
	// KindConfirmation attests that the known value is right.
	KindConfirmation Kind = "confirmation"
)

func (k Kind) valid() bool {
	return k == KindAddition || k == KindCorrection || k == KindConfirmation
}

// Status is the proposal lifecycle state. Both approved and rejected are
// terminal; a resolved proposal is immutable.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Proposal is one field-level verification proposal.
type Proposal struct {
	ID           string     `json:"id"`
	CourtID      string     `json:"court_id"`
	Field        string     `json:"field"`
	Kind         Kind       `json:"kind"`
	OldValue     *string    `json:"old_value,omitempty"`
	NewValue     string     `json:"new_value"`
	Note         string     `json:"note,omitempty"`
	SubmitterID  string     `json:"submitter_id"`
	Status       Status     `json:"status"`
	ModeratorID  *string    `json:"moderator_id,omitempty"`
	DecisionNote *string    `json:"decision_note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}
