package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/oliveandembers/backoffice-api/internal/baseline"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// SyncVariableStore is the write surface sync needs on the config store.
type SyncVariableStore interface {
	BulkUpsert(ctx context.Context, vars []models.ConfigVariable) error
	Delete(ctx context.Context, category models.VariableCategory, key string) error
	Ping(ctx context.Context) error
}

// SyncHistoryStore records and reads the append-only run log.
type SyncHistoryStore interface {
	Insert(ctx context.Context, entry *models.SyncHistoryEntry) error
	List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistoryEntry, int, error)
	LastBySource(ctx context.Context) (map[string]models.SyncHistoryEntry, error)
}

// SyncApprovalStore lets force sync supersede pending change requests whose
// key it overwrites. Implemented by ApprovalService so the supersede holds
// the same per-key lock as Submit, Approve and Reject.
type SyncApprovalStore interface {
	SupersedePending(ctx context.Context, category models.VariableCategory, key, resolverID, reason string) (bool, error)
}

// AuditWriter appends audit trail entries.
type AuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Invalidator dispatches the cache invalidation signal after committed writes.
type Invalidator interface {
	Invalidate(ctx context.Context, category models.VariableCategory, key string) error
}

// systemActor marks writes performed by the engine itself rather than a user.
const systemActor = "system"

// SyncService reconciles code-declared baselines into the config store. Runs
// are serialised per source; concurrent requests for the same source fail
// fast instead of queueing.
type SyncService struct {
	registry  ProviderResolver
	diff      *DiffService
	variables SyncVariableStore
	history   SyncHistoryStore
	approvals SyncApprovalStore
	audit     AuditWriter
	cache     Invalidator
	metrics   *MetricsService
	logger    *zap.Logger
	locks     *lockTable

	sourceTimeout time.Duration
	supersede     bool
}

// NewSyncService constructs the sync orchestrator.
func NewSyncService(
	registry ProviderResolver,
	diff *DiffService,
	variables SyncVariableStore,
	history SyncHistoryStore,
	approvals SyncApprovalStore,
	audit AuditWriter,
	cache Invalidator,
	metrics *MetricsService,
	logger *zap.Logger,
	sourceTimeout time.Duration,
	supersedePendingOnForce bool,
) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sourceTimeout <= 0 {
		sourceTimeout = 30 * time.Second
	}
	return &SyncService{
		registry:      registry,
		diff:          diff,
		variables:     variables,
		history:       history,
		approvals:     approvals,
		audit:         audit,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		locks:         newLockTable(),
		sourceTimeout: sourceTimeout,
		supersede:     supersedePendingOnForce,
	}
}

// AutoSync applies additions and value corrections from the requested
// baselines. It never deletes store keys.
func (s *SyncService) AutoSync(ctx context.Context, sources []string, dryRun bool, actor string) ([]models.SyncOperationResult, error) {
	return s.run(ctx, models.SyncTypeAuto, sources, dryRun, actor)
}

// ForceSync makes the store match the baselines exactly, including deleting
// keys that complete sources no longer declare.
func (s *SyncService) ForceSync(ctx context.Context, sources []string, dryRun bool, actor string) ([]models.SyncOperationResult, error) {
	return s.run(ctx, models.SyncTypeForce, sources, dryRun, actor)
}

// GetDiff reports pending differences without writing anything.
func (s *SyncService) GetDiff(ctx context.Context, sources []string) ([]models.SyncDiff, error) {
	return s.diff.Compute(ctx, sources)
}

func (s *SyncService) run(ctx context.Context, syncType models.SyncType, sources []string, dryRun bool, actor string) ([]models.SyncOperationResult, error) {
	providers, err := s.registry.Resolve(sources)
	if err != nil {
		return nil, err
	}

	results := make([]models.SyncOperationResult, 0, len(providers))
	for _, p := range providers {
		results = append(results, s.syncSource(ctx, p, syncType, dryRun))
	}

	if !dryRun {
		s.auditRun(ctx, syncType, actor, results)
	}
	return results, nil
}

// syncSource reconciles a single source. One failing source never aborts the
// others; its result carries the error instead.
func (s *SyncService) syncSource(ctx context.Context, p baseline.Provider, syncType models.SyncType, dryRun bool) models.SyncOperationResult {
	source := p.Source()
	result := models.SyncOperationResult{Source: source, DryRun: dryRun}

	if !s.locks.tryLock(source) {
		result.Outcome = models.SyncOutcomeFailed
		result.Error = appErrors.ErrSyncInProgress.Message
		return result
	}
	defer s.locks.unlock(source)

	started := time.Now().UTC()
	runCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	diff, err := s.diff.ComputeProvider(runCtx, p)
	if err != nil {
		s.logger.Warn("sync diff failed",
			zap.String("source", source),
			zap.String("sync_type", string(syncType)),
			zap.Error(err))
		return s.finishSource(ctx, &result, syncType, started, dryRun, err)
	}

	result.AddedCount = len(diff.Added)
	result.ChangedCount = len(diff.Changed)
	if syncType == models.SyncTypeForce {
		result.RemovedCount = len(diff.Removed)
	}

	if diff.Empty() || (syncType == models.SyncTypeAuto && len(diff.Added)+len(diff.Changed) == 0) {
		return s.finishSource(ctx, &result, syncType, started, dryRun, nil)
	}

	if dryRun {
		result.Outcome = models.SyncOutcomeApplied
		return result
	}

	if err := s.apply(runCtx, source, syncType, diff); err != nil {
		s.logger.Error("sync apply failed",
			zap.String("source", source),
			zap.String("sync_type", string(syncType)),
			zap.Error(err))
		return s.finishSource(ctx, &result, syncType, started, dryRun, err)
	}

	s.invalidateApplied(ctx, diff)
	return s.finishSource(ctx, &result, syncType, started, dryRun, nil)
}

// apply writes the diff to the store. Additions and changes go in one
// transaction; force sync then deletes removed keys and rejects pending
// approvals the overwrite made stale.
func (s *SyncService) apply(ctx context.Context, source string, syncType models.SyncType, diff models.SyncDiff) error {
	updatedBy := systemActor + ":sync:" + string(syncType)
	upserts := make([]models.ConfigVariable, 0, len(diff.Added)+len(diff.Changed))
	for _, e := range append(append([]models.DiffEntry{}, diff.Added...), diff.Changed...) {
		value := ""
		if e.NewValue != nil {
			value = *e.NewValue
		}
		normalized, ok := models.NormalizeValue(e.Type, value)
		if !ok {
			normalized = value
		}
		upserts = append(upserts, models.ConfigVariable{
			Category:  e.Category,
			Key:       e.Key,
			Value:     normalized,
			Type:      e.Type,
			UpdatedBy: &updatedBy,
		})
	}

	if err := s.variables.BulkUpsert(ctx, upserts); err != nil {
		return err
	}

	if syncType != models.SyncTypeForce {
		return nil
	}

	var errs []error
	for _, e := range diff.Removed {
		if err := s.variables.Delete(ctx, e.Category, e.Key); err != nil && !errors.Is(err, sql.ErrNoRows) {
			errs = append(errs, err)
		}
	}
	if s.supersede {
		entries := append(append(append([]models.DiffEntry{}, diff.Added...), diff.Changed...), diff.Removed...)
		for _, e := range entries {
			if err := s.supersedePending(ctx, e.Category, e.Key); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// supersedePending rejects the pending approval for a key that force sync
// just overwrote, so no one later approves a value the baseline replaced.
// The approval gate serialises this against Submit and Approve per key.
func (s *SyncService) supersedePending(ctx context.Context, category models.VariableCategory, key string) error {
	superseded, err := s.approvals.SupersedePending(ctx, category, key, systemActor, "superseded by force sync")
	if err != nil {
		return err
	}
	if superseded {
		s.logger.Info("pending approval superseded by force sync",
			zap.String("category", string(category)),
			zap.String("key", key))
	}
	return nil
}

// finishSource records the outcome, history row and metrics for one source.
func (s *SyncService) finishSource(ctx context.Context, result *models.SyncOperationResult, syncType models.SyncType, started time.Time, dryRun bool, runErr error) models.SyncOperationResult {
	switch {
	case runErr != nil:
		result.Outcome = models.SyncOutcomeFailed
		result.Error = runErr.Error()
	case result.AddedCount+result.ChangedCount+result.RemovedCount == 0:
		result.Outcome = models.SyncOutcomeNoChanges
	default:
		result.Outcome = models.SyncOutcomeApplied
	}

	finished := time.Now().UTC()
	s.metrics.ObserveSyncRun(result.Source, string(syncType), string(result.Outcome), finished.Sub(started))

	if dryRun {
		return *result
	}

	entry := models.SyncHistoryEntry{
		Source:       result.Source,
		SyncType:     syncType,
		StartedAt:    started,
		FinishedAt:   finished,
		Outcome:      result.Outcome,
		AddedCount:   result.AddedCount,
		ChangedCount: result.ChangedCount,
		RemovedCount: result.RemovedCount,
	}
	if result.Error != "" {
		entry.Error = &result.Error
	}
	if err := s.history.Insert(ctx, &entry); err != nil {
		s.logger.Error("record sync history failed",
			zap.String("source", result.Source),
			zap.Error(err))
	}
	return *result
}

// invalidateApplied dispatches one invalidation per affected category after a
// committed sync write.
func (s *SyncService) invalidateApplied(ctx context.Context, diff models.SyncDiff) {
	seen := make(map[models.VariableCategory]struct{})
	entries := append(append(append([]models.DiffEntry{}, diff.Added...), diff.Changed...), diff.Removed...)
	for _, e := range entries {
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		if err := s.cache.Invalidate(ctx, e.Category, ""); err != nil {
			s.logger.Warn("sync cache invalidation failed",
				zap.String("category", string(e.Category)),
				zap.Error(err))
		}
	}
}

func (s *SyncService) auditRun(ctx context.Context, syncType models.SyncType, actor string, results []models.SyncOperationResult) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return
	}
	entry := models.AuditLog{
		Action:    models.AuditActionSyncRun,
		Resource:  "sync",
		NewValues: payload,
	}
	if actor != "" {
		entry.UserID = &actor
	}
	if err := s.audit.CreateAuditLog(ctx, &entry); err != nil {
		s.logger.Warn("audit sync run failed", zap.Error(err))
	}
}

// GetHistory pages through past runs, newest first.
func (s *SyncService) GetHistory(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistoryEntry, *models.Pagination, error) {
	if filter.Source != "" {
		if _, err := s.registry.Resolve([]string{filter.Source}); err != nil {
			return nil, nil, err
		}
	}
	if filter.SyncType != "" && filter.SyncType != models.SyncTypeAuto && filter.SyncType != models.SyncTypeForce {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "sync_type must be AUTO or FORCE")
	}

	entries, total, err := s.history.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list sync history")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	return entries, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// GetStatus summarises the most recent run per registered source.
func (s *SyncService) GetStatus(ctx context.Context) ([]models.SourceSyncStatus, error) {
	last, err := s.history.LastBySource(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load sync status")
	}

	providers, err := s.registry.Resolve(nil)
	if err != nil {
		return nil, err
	}

	statuses := make([]models.SourceSyncStatus, 0, len(providers))
	for _, p := range providers {
		status := models.SourceSyncStatus{Source: p.Source(), Complete: p.Complete()}
		if entry, ok := last[p.Source()]; ok {
			finished := entry.FinishedAt
			syncType := entry.SyncType
			outcome := entry.Outcome
			status.LastSync = &finished
			status.LastType = &syncType
			status.LastResult = &outcome
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// GetHealth probes the store and every baseline provider.
func (s *SyncService) GetHealth(ctx context.Context) (*models.SyncHealth, error) {
	health := &models.SyncHealth{Sources: make(map[string]bool), Healthy: true}

	probeCtx, cancel := context.WithTimeout(ctx, s.sourceTimeout)
	defer cancel()

	if err := s.variables.Ping(probeCtx); err != nil {
		s.logger.Warn("config store unreachable", zap.Error(err))
		health.Healthy = false
	} else {
		health.StoreReachable = true
	}

	providers, err := s.registry.Resolve(nil)
	if err != nil {
		return nil, err
	}
	for _, p := range providers {
		_, err := p.Entries(probeCtx)
		reachable := err == nil
		health.Sources[p.Source()] = reachable
		if !reachable {
			health.Healthy = false
		}
	}
	return health, nil
}
