package dto

// SyncRequest selects the sources to reconcile. Empty means all sources.
type SyncRequest struct {
	Sources []string `json:"sources"`
	DryRun  bool     `json:"dry_run"`
}

// InvalidateCacheRequest narrows the invalidation signal.
type InvalidateCacheRequest struct {
	Category string `json:"category"`
	Key      string `json:"key"`
}
