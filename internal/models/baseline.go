package models

// BaselineEntry is a code-declared expected value for a (source, key) pair.
// Baselines are read-only to this subsystem; providers in internal/baseline
// supply them.
type BaselineEntry struct {
	Source      string           `json:"source"`
	Category    VariableCategory `json:"category"`
	Key         string           `json:"key"`
	Value       string           `json:"value"`
	Type        VariableType     `json:"type"`
	Description string           `json:"description,omitempty"`
}
