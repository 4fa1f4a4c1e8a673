package models

import "time"

// SyncType distinguishes corrective auto syncs from destructive force syncs.
type SyncType string

const (
	SyncTypeAuto  SyncType = "AUTO"
	SyncTypeForce SyncType = "FORCE"
)

// SyncOutcome captures the per-source result of a sync run.
type SyncOutcome string

const (
	SyncOutcomeApplied   SyncOutcome = "APPLIED"
	SyncOutcomeNoChanges SyncOutcome = "NO_CHANGES"
	SyncOutcomeFailed    SyncOutcome = "FAILED"
)

// DiffEntry describes a single key difference between baseline and store.
type DiffEntry struct {
	Category VariableCategory `json:"category"`
	Key      string           `json:"key"`
	Type     VariableType     `json:"type"`
	OldValue *string          `json:"old_value,omitempty"`
	NewValue *string          `json:"new_value,omitempty"`
}

// SyncDiff holds the three disjoint difference sets for one source.
type SyncDiff struct {
	Source  string      `json:"source"`
	Added   []DiffEntry `json:"added"`
	Changed []DiffEntry `json:"changed"`
	Removed []DiffEntry `json:"removed"`
}

// Empty reports whether the diff contains no differences.
func (d SyncDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// SyncHistoryEntry is an immutable record of one sync run for one source.
type SyncHistoryEntry struct {
	ID           string      `db:"id" json:"id"`
	Source       string      `db:"source" json:"source"`
	SyncType     SyncType    `db:"sync_type" json:"sync_type"`
	StartedAt    time.Time   `db:"started_at" json:"started_at"`
	FinishedAt   time.Time   `db:"finished_at" json:"finished_at"`
	Outcome      SyncOutcome `db:"outcome" json:"outcome"`
	AddedCount   int         `db:"added_count" json:"added_count"`
	ChangedCount int         `db:"changed_count" json:"changed_count"`
	RemovedCount int         `db:"removed_count" json:"removed_count"`
	Error        *string     `db:"error" json:"error,omitempty"`
}

// SyncHistoryFilter constrains history listings.
type SyncHistoryFilter struct {
	Source   string
	SyncType SyncType
	Page     int
	PageSize int
}

// SyncOperationResult aggregates the outcome reported to callers per source.
type SyncOperationResult struct {
	Source       string      `json:"source"`
	Outcome      SyncOutcome `json:"outcome"`
	AddedCount   int         `json:"added_count"`
	ChangedCount int         `json:"changed_count"`
	RemovedCount int         `json:"removed_count"`
	DryRun       bool        `json:"dry_run,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// SourceSyncStatus summarises the most recent sync for one source.
type SourceSyncStatus struct {
	Source     string       `json:"source"`
	Complete   bool         `json:"complete"`
	LastSync   *time.Time   `json:"last_sync,omitempty"`
	LastType   *SyncType    `json:"last_type,omitempty"`
	LastResult *SyncOutcome `json:"last_result,omitempty"`
}

// SyncHealth reports reachability of the store and baseline providers.
type SyncHealth struct {
	StoreReachable bool            `json:"store_reachable"`
	Sources        map[string]bool `json:"sources"`
	Healthy        bool            `json:"healthy"`
}
