package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveandembers/backoffice-api/internal/baseline"
	"github.com/oliveandembers/backoffice-api/internal/models"
)

type syncStoreStub struct {
	upserts   []models.ConfigVariable
	deletes   []string
	upsertErr error
	pingErr   error
}

func (s *syncStoreStub) BulkUpsert(ctx context.Context, vars []models.ConfigVariable) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, vars...)
	return nil
}

func (s *syncStoreStub) Delete(ctx context.Context, category models.VariableCategory, key string) error {
	s.deletes = append(s.deletes, string(category)+":"+key)
	return nil
}

func (s *syncStoreStub) Ping(ctx context.Context) error {
	return s.pingErr
}

type historyStub struct {
	entries []models.SyncHistoryEntry
	last    map[string]models.SyncHistoryEntry
}

func (h *historyStub) Insert(ctx context.Context, entry *models.SyncHistoryEntry) error {
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *historyStub) List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistoryEntry, int, error) {
	return h.entries, len(h.entries), nil
}

func (h *historyStub) LastBySource(ctx context.Context) (map[string]models.SyncHistoryEntry, error) {
	if h.last == nil {
		return map[string]models.SyncHistoryEntry{}, nil
	}
	return h.last, nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type invalidatorStub struct {
	calls []string
	err   error
}

func (i *invalidatorStub) Invalidate(ctx context.Context, category models.VariableCategory, key string) error {
	i.calls = append(i.calls, string(category)+":"+key)
	return i.err
}

func newSyncFixture(t *testing.T, providers []baseline.Provider, stored []models.ConfigVariable) (*SyncService, *syncStoreStub, *historyStub, *approvalRepoStub, *invalidatorStub) {
	t.Helper()
	registry, err := baseline.NewRegistry(providers...)
	require.NoError(t, err)

	diff := NewDiffService(&variableReaderStub{vars: stored}, registry)
	store := &syncStoreStub{}
	history := &historyStub{}
	approvalRepo := newApprovalRepoStub()
	approvals := NewApprovalService(approvalRepo, newVarStoreStub(), &auditStub{}, &invalidatorStub{}, nil, nil)
	invalidator := &invalidatorStub{}
	svc := NewSyncService(registry, diff, store, history, approvals, &auditStub{}, invalidator, nil, nil, 5*time.Second, true)
	return svc, store, history, approvalRepo, invalidator
}

func TestAutoSyncAppliesAddedAndChanged(t *testing.T) {
	svc, store, history, _, invalidator := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		[]models.ConfigVariable{
			storedVar(models.CategoryPricing, "WEEKEND_MULTIPLIER", "1.25", models.VariableTypeNumber),
		})

	results, err := svc.AutoSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.SyncOutcomeApplied, results[0].Outcome)
	assert.Equal(t, 1, results[0].AddedCount)
	assert.Equal(t, 1, results[0].ChangedCount)
	assert.Equal(t, 0, results[0].RemovedCount)

	require.Len(t, store.upserts, 2)
	assert.Empty(t, store.deletes)

	require.Len(t, history.entries, 1)
	assert.Equal(t, models.SyncTypeAuto, history.entries[0].SyncType)
	assert.Equal(t, models.SyncOutcomeApplied, history.entries[0].Outcome)

	assert.Equal(t, []string{"pricing:"}, invalidator.calls)
}

func TestAutoSyncNeverDeletes(t *testing.T) {
	svc, store, history, _, invalidator := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		[]models.ConfigVariable{
			storedVar(models.CategoryPricing, "BASE_PRICE_PER_PERSON", "75", models.VariableTypeNumber),
			storedVar(models.CategoryPricing, "WEEKEND_MULTIPLIER", "1.15", models.VariableTypeNumber),
			storedVar(models.CategoryPricing, "LEGACY_DISCOUNT", "5", models.VariableTypeNumber),
		})

	results, err := svc.AutoSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.SyncOutcomeNoChanges, results[0].Outcome)
	assert.Empty(t, store.deletes)
	assert.Empty(t, store.upserts)
	assert.Empty(t, invalidator.calls)
	require.Len(t, history.entries, 1)
	assert.Equal(t, models.SyncOutcomeNoChanges, history.entries[0].Outcome)
}

func TestForceSyncDeletesAndSupersedesPending(t *testing.T) {
	svc, store, _, approvalRepo, _ := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		[]models.ConfigVariable{
			storedVar(models.CategoryPricing, "BASE_PRICE_PER_PERSON", "75", models.VariableTypeNumber),
			storedVar(models.CategoryPricing, "WEEKEND_MULTIPLIER", "1.15", models.VariableTypeNumber),
			storedVar(models.CategoryPricing, "LEGACY_DISCOUNT", "5", models.VariableTypeNumber),
		})
	approvalRepo.requests["req-1"] = &models.ApprovalRequest{
		ID: "req-1", Category: models.CategoryPricing, Key: "LEGACY_DISCOUNT",
		ProposedValue: "10", Type: models.VariableTypeNumber,
		Status: models.ApprovalStatusPending,
	}

	results, err := svc.ForceSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.SyncOutcomeApplied, results[0].Outcome)
	assert.Equal(t, 1, results[0].RemovedCount)
	assert.Equal(t, []string{"pricing:LEGACY_DISCOUNT"}, store.deletes)

	superseded, err := approvalRepo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, superseded.Status)
	require.NotNil(t, superseded.ResolverID)
	assert.Equal(t, systemActor, *superseded.ResolverID)
	require.NotNil(t, superseded.ResolutionReason)
	assert.Equal(t, "superseded by force sync", *superseded.ResolutionReason)
}

func TestForceSyncSupersedeWaitsForApprovalKeyLock(t *testing.T) {
	registry, err := baseline.NewRegistry(pricingBaseline(true))
	require.NoError(t, err)
	stored := []models.ConfigVariable{
		storedVar(models.CategoryPricing, "BASE_PRICE_PER_PERSON", "75", models.VariableTypeNumber),
		storedVar(models.CategoryPricing, "WEEKEND_MULTIPLIER", "1.15", models.VariableTypeNumber),
		storedVar(models.CategoryPricing, "LEGACY_DISCOUNT", "5", models.VariableTypeNumber),
	}
	diff := NewDiffService(&variableReaderStub{vars: stored}, registry)
	approvalRepo := newApprovalRepoStub()
	approvalRepo.requests["req-1"] = &models.ApprovalRequest{
		ID: "req-1", Category: models.CategoryPricing, Key: "LEGACY_DISCOUNT",
		ProposedValue: "10", Type: models.VariableTypeNumber,
		Status: models.ApprovalStatusPending,
	}
	approvals := NewApprovalService(approvalRepo, newVarStoreStub(), &auditStub{}, &invalidatorStub{}, nil, nil)
	svc := NewSyncService(registry, diff, &syncStoreStub{}, &historyStub{}, approvals,
		&auditStub{}, &invalidatorStub{}, nil, nil, 5*time.Second, true)

	type forceOutcome struct {
		results []models.SyncOperationResult
		err     error
	}

	// the supersede must queue behind whoever holds the approval key lock
	approvals.lockKey(models.CategoryPricing, "LEGACY_DISCOUNT")
	done := make(chan forceOutcome, 1)
	go func() {
		results, runErr := svc.ForceSync(context.Background(), nil, false, "admin-1")
		done <- forceOutcome{results: results, err: runErr}
	}()

	select {
	case <-done:
		t.Fatal("force sync superseded the request while the key was locked")
	case <-time.After(50 * time.Millisecond):
	}
	approvals.unlockKey(models.CategoryPricing, "LEGACY_DISCOUNT")

	select {
	case outcome := <-done:
		require.NoError(t, outcome.err)
		require.Len(t, outcome.results, 1)
		assert.Equal(t, models.SyncOutcomeApplied, outcome.results[0].Outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("force sync never finished after the key lock was released")
	}

	superseded, err := approvalRepo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, superseded.Status)
}

// syncMemoryStore backs both the diff reader and the sync writer so a second
// run observes what the first one wrote.
type syncMemoryStore struct {
	mu   sync.Mutex
	vars map[string]models.ConfigVariable
}

func newSyncMemoryStore(vars ...models.ConfigVariable) *syncMemoryStore {
	s := &syncMemoryStore{vars: make(map[string]models.ConfigVariable)}
	for _, v := range vars {
		s.vars[string(v.Category)+":"+v.Key] = v
	}
	return s
}

func (s *syncMemoryStore) ListByCategories(ctx context.Context, categories []models.VariableCategory) ([]models.ConfigVariable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := make(map[models.VariableCategory]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	var out []models.ConfigVariable
	for _, v := range s.vars {
		if wanted[v.Category] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *syncMemoryStore) BulkUpsert(ctx context.Context, vars []models.ConfigVariable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vars {
		s.vars[string(v.Category)+":"+v.Key] = v
	}
	return nil
}

func (s *syncMemoryStore) Delete(ctx context.Context, category models.VariableCategory, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(category) + ":" + key
	if _, ok := s.vars[k]; !ok {
		return sql.ErrNoRows
	}
	delete(s.vars, k)
	return nil
}

func (s *syncMemoryStore) Ping(ctx context.Context) error { return nil }

func TestForceSyncTwiceIsIdempotent(t *testing.T) {
	mem := newSyncMemoryStore(
		storedVar(models.CategoryPricing, "WEEKEND_MULTIPLIER", "1.25", models.VariableTypeNumber),
		storedVar(models.CategoryPricing, "LEGACY_DISCOUNT", "5", models.VariableTypeNumber),
	)
	registry, err := baseline.NewRegistry(pricingBaseline(true))
	require.NoError(t, err)
	diff := NewDiffService(mem, registry)
	approvals := NewApprovalService(newApprovalRepoStub(), newVarStoreStub(), &auditStub{}, &invalidatorStub{}, nil, nil)
	history := &historyStub{}
	svc := NewSyncService(registry, diff, mem, history, approvals,
		&auditStub{}, &invalidatorStub{}, nil, nil, 5*time.Second, true)

	first, err := svc.ForceSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, models.SyncOutcomeApplied, first[0].Outcome)
	assert.Equal(t, 1, first[0].AddedCount)
	assert.Equal(t, 1, first[0].ChangedCount)
	assert.Equal(t, 1, first[0].RemovedCount)

	second, err := svc.ForceSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, models.SyncOutcomeNoChanges, second[0].Outcome)
	assert.Zero(t, second[0].AddedCount+second[0].ChangedCount+second[0].RemovedCount)

	diffs, err := svc.GetDiff(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.True(t, diffs[0].Empty())

	require.Len(t, history.entries, 2)
	assert.Equal(t, models.SyncOutcomeNoChanges, history.entries[1].Outcome)
}

func TestSyncDryRunWritesNothing(t *testing.T) {
	svc, store, history, _, invalidator := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		nil)

	results, err := svc.AutoSync(context.Background(), nil, true, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.True(t, results[0].DryRun)
	assert.Equal(t, models.SyncOutcomeApplied, results[0].Outcome)
	assert.Equal(t, 2, results[0].AddedCount)

	assert.Empty(t, store.upserts)
	assert.Empty(t, history.entries)
	assert.Empty(t, invalidator.calls)
}

func TestSyncLockContentionFailsFast(t *testing.T) {
	svc, store, history, _, _ := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		nil)

	require.True(t, svc.locks.tryLock("pricing"))
	defer svc.locks.unlock("pricing")

	results, err := svc.AutoSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.SyncOutcomeFailed, results[0].Outcome)
	assert.Contains(t, results[0].Error, "sync already running")
	assert.Empty(t, store.upserts)
	assert.Empty(t, history.entries)
}

func TestSyncFailedSourceDoesNotAbortOthers(t *testing.T) {
	svc, store, history, _, _ := newSyncFixture(t,
		[]baseline.Provider{&failingProvider{source: "menus"}, pricingBaseline(true)},
		nil)

	results, err := svc.AutoSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 2)

	bySource := map[string]models.SyncOperationResult{}
	for _, res := range results {
		bySource[res.Source] = res
	}
	assert.Equal(t, models.SyncOutcomeFailed, bySource["menus"].Outcome)
	assert.NotEmpty(t, bySource["menus"].Error)
	assert.Equal(t, models.SyncOutcomeApplied, bySource["pricing"].Outcome)

	assert.Len(t, store.upserts, 2)
	assert.Len(t, history.entries, 2)
}

func TestSyncApplyFailureRecordsFailedRun(t *testing.T) {
	svc, store, history, _, invalidator := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		nil)
	store.upsertErr = errors.New("disk full")

	results, err := svc.AutoSync(context.Background(), nil, false, "admin-1")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, models.SyncOutcomeFailed, results[0].Outcome)
	assert.Contains(t, results[0].Error, "disk full")
	assert.Empty(t, invalidator.calls)

	require.Len(t, history.entries, 1)
	assert.Equal(t, models.SyncOutcomeFailed, history.entries[0].Outcome)
	require.NotNil(t, history.entries[0].Error)
}

func TestGetStatusMergesLastRun(t *testing.T) {
	svc, _, history, _, _ := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		nil)
	finished := time.Now().UTC()
	history.last = map[string]models.SyncHistoryEntry{
		"pricing": {Source: "pricing", SyncType: models.SyncTypeAuto, Outcome: models.SyncOutcomeApplied, FinishedAt: finished},
	}

	statuses, err := svc.GetStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "pricing", statuses[0].Source)
	assert.True(t, statuses[0].Complete)
	require.NotNil(t, statuses[0].LastResult)
	assert.Equal(t, models.SyncOutcomeApplied, *statuses[0].LastResult)
}

func TestGetHealthReportsStoreOutage(t *testing.T) {
	svc, store, _, _, _ := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		nil)
	store.pingErr = errors.New("connection refused")

	health, err := svc.GetHealth(context.Background())
	require.NoError(t, err)
	assert.False(t, health.StoreReachable)
	assert.False(t, health.Healthy)
	assert.True(t, health.Sources["pricing"])
}

func TestGetHistoryValidatesFilter(t *testing.T) {
	svc, _, _, _, _ := newSyncFixture(t,
		[]baseline.Provider{pricingBaseline(true)},
		nil)

	_, _, err := svc.GetHistory(context.Background(), models.SyncHistoryFilter{Source: "menus"})
	require.Error(t, err)

	_, _, err = svc.GetHistory(context.Background(), models.SyncHistoryFilter{SyncType: "PARTIAL"})
	require.Error(t, err)

	entries, pagination, err := svc.GetHistory(context.Background(), models.SyncHistoryFilter{Source: "pricing"})
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.NotNil(t, pagination)
	assert.Equal(t, 1, pagination.Page)
}
