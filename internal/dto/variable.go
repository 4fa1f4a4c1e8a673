package dto

// VariableItem represents a config variable exposed via API.
type VariableItem struct {
	Category    string `json:"category"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Priority    string `json:"priority"`
	Description string `json:"description,omitempty"`
	UpdatedBy   string `json:"updated_by,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// UpdateVariableRequest describes the payload for updating a variable. Gated
// categories return a pending approval request instead of a committed value.
type UpdateVariableRequest struct {
	Value  string `json:"value" validate:"required"`
	Reason string `json:"reason"`
}

// UpdateVariableResponse carries either the committed variable or the
// approval request created in its place.
type UpdateVariableResponse struct {
	Variable *VariableItem `json:"variable,omitempty"`
	Approval *ApprovalItem `json:"approval,omitempty"`
	Gated    bool          `json:"gated"`
}
