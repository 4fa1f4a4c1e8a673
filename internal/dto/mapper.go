package dto

import (
	"time"

	"github.com/oliveandembers/backoffice-api/internal/models"
)

// NewVariableItem maps a stored variable onto its API representation,
// attaching the priority derived from its category.
func NewVariableItem(v models.ConfigVariable) VariableItem {
	item := VariableItem{
		Category:  string(v.Category),
		Key:       v.Key,
		Value:     v.Value,
		Type:      string(v.Type),
		Priority:  string(models.PriorityFor(v.Category)),
		UpdatedAt: v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.Description != nil {
		item.Description = *v.Description
	}
	if v.UpdatedBy != nil {
		item.UpdatedBy = *v.UpdatedBy
	}
	return item
}

// NewVariableItems maps a variable slice.
func NewVariableItems(vars []models.ConfigVariable) []VariableItem {
	items := make([]VariableItem, 0, len(vars))
	for _, v := range vars {
		items = append(items, NewVariableItem(v))
	}
	return items
}

// NewApprovalItem maps an approval request onto its API representation.
func NewApprovalItem(req models.ApprovalRequest) ApprovalItem {
	item := ApprovalItem{
		ID:            req.ID,
		Category:      string(req.Category),
		Key:           req.Key,
		ProposedValue: req.ProposedValue,
		Type:          string(req.Type),
		Reason:        req.Reason,
		RequesterID:   req.RequesterID,
		Status:        string(req.Status),
		CreatedAt:     req.CreatedAt.UTC().Format(time.RFC3339),
	}
	if req.CurrentValue != nil {
		item.CurrentValue = *req.CurrentValue
	}
	if req.ResolverID != nil {
		item.ResolverID = *req.ResolverID
	}
	if req.ResolutionReason != nil {
		item.ResolutionReason = *req.ResolutionReason
	}
	if req.ResolvedAt != nil {
		item.ResolvedAt = req.ResolvedAt.UTC().Format(time.RFC3339)
	}
	return item
}

// NewApprovalItems maps an approval slice.
func NewApprovalItems(requests []models.ApprovalRequest) []ApprovalItem {
	items := make([]ApprovalItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, NewApprovalItem(req))
	}
	return items
}
