package models

// Priority is the risk tier derived from a variable's category. Critical and
// high tiers require a second admin to approve changes before they commit.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// categoryPriorities is the fixed policy table mapping category to risk tier.
// It is intentionally not runtime-configurable.
var categoryPriorities = map[VariableCategory]Priority{
	CategoryPricing:     PriorityCritical,
	CategoryDeposit:     PriorityCritical,
	CategoryEnvironment: PriorityHigh,
	CategoryTravel:      PriorityMedium,
	CategoryBooking:     PriorityMedium,
	CategoryFeature:     PriorityMedium,
	CategoryAI:          PriorityLow,
	CategoryMonitoring:  PriorityLow,
}

// PriorityFor returns the risk tier for a category. Unknown categories are
// treated as critical so they never slip past review.
func PriorityFor(category VariableCategory) Priority {
	if p, ok := categoryPriorities[category]; ok {
		return p
	}
	return PriorityCritical
}

// RequiresApproval reports whether changes at this tier need a second admin.
func (p Priority) RequiresApproval() bool {
	return p == PriorityCritical || p == PriorityHigh
}
