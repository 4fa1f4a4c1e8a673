package dto

// ApprovalItem represents an approval request exposed via API.
type ApprovalItem struct {
	ID               string `json:"id"`
	Category         string `json:"category"`
	Key              string `json:"key"`
	CurrentValue     string `json:"current_value,omitempty"`
	ProposedValue    string `json:"proposed_value"`
	Type             string `json:"type"`
	Reason           string `json:"reason"`
	RequesterID      string `json:"requester_id"`
	Status           string `json:"status"`
	ResolverID       string `json:"resolver_id,omitempty"`
	ResolutionReason string `json:"resolution_reason,omitempty"`
	CreatedAt        string `json:"created_at"`
	ResolvedAt       string `json:"resolved_at,omitempty"`
}

// CreateApprovalRequest describes the payload for proposing a change. Type is
// only consulted when the key does not exist yet; existing keys keep the type
// they were created with.
type CreateApprovalRequest struct {
	Category      string `json:"category" validate:"required"`
	Key           string `json:"key" validate:"required"`
	ProposedValue string `json:"proposed_value" validate:"required"`
	Type          string `json:"type" validate:"omitempty,oneof=STRING NUMBER BOOLEAN"`
	Reason        string `json:"reason" validate:"required"`
}

// ResolveApprovalRequest carries the reviewer's note or rejection reason.
type ResolveApprovalRequest struct {
	Reason string `json:"reason"`
}
