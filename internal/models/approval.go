package models

import "time"

// ApprovalStatus captures workflow states for change requests.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// ApprovalRequest is a change proposal for one (category, key) awaiting a
// second admin's review. Approved and rejected are terminal states.
type ApprovalRequest struct {
	ID               string           `db:"id" json:"id"`
	Category         VariableCategory `db:"category" json:"category"`
	Key              string           `db:"key" json:"key"`
	CurrentValue     *string          `db:"current_value" json:"current_value,omitempty"`
	ProposedValue    string           `db:"proposed_value" json:"proposed_value"`
	Type             VariableType     `db:"type" json:"type"`
	Reason           string           `db:"reason" json:"reason"`
	RequesterID      string           `db:"requester_id" json:"requester_id"`
	Status           ApprovalStatus   `db:"status" json:"status"`
	ResolverID       *string          `db:"resolver_id" json:"resolver_id,omitempty"`
	ResolutionReason *string          `db:"resolution_reason" json:"resolution_reason,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	ResolvedAt       *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ApprovalFilter constrains pending listings.
type ApprovalFilter struct {
	Category    VariableCategory
	RequesterID string
}
