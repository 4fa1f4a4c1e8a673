package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/oliveandembers/backoffice-api/internal/models"
)

// SyncHistoryRepository persists the append-only sync run log. Rows are never
// updated or deleted here; retention is an operational concern.
type SyncHistoryRepository struct {
	db *sqlx.DB
}

// NewSyncHistoryRepository constructs the repository.
func NewSyncHistoryRepository(db *sqlx.DB) *SyncHistoryRepository {
	return &SyncHistoryRepository{db: db}
}

// Insert appends one history row.
func (r *SyncHistoryRepository) Insert(ctx context.Context, entry *models.SyncHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = time.Now().UTC()
	}
	const query = `INSERT INTO sync_history
	(id, source, sync_type, started_at, finished_at, outcome, added_count, changed_count, removed_count, error)
	VALUES (:id, :source, :sync_type, :started_at, :finished_at, :outcome, :added_count, :changed_count, :removed_count, :error)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("insert sync history: %w", err)
	}
	return nil
}

// List returns history rows newest first with a total count for pagination.
func (r *SyncHistoryRepository) List(ctx context.Context, filter models.SyncHistoryFilter) ([]models.SyncHistoryEntry, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source = $%d", len(args)))
	}
	if filter.SyncType != "" {
		args = append(args, filter.SyncType)
		conditions = append(conditions, fmt.Sprintf("sync_type = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sync_history"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count sync history: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	query := `SELECT id, source, sync_type, started_at, finished_at, outcome, added_count, changed_count, removed_count, error
FROM sync_history` + where + fmt.Sprintf(" ORDER BY started_at DESC LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var entries []models.SyncHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sync history: %w", err)
	}
	return entries, total, nil
}

// LastBySource returns the most recent history row for each source.
func (r *SyncHistoryRepository) LastBySource(ctx context.Context) (map[string]models.SyncHistoryEntry, error) {
	const query = `SELECT DISTINCT ON (source)
	id, source, sync_type, started_at, finished_at, outcome, added_count, changed_count, removed_count, error
FROM sync_history ORDER BY source ASC, started_at DESC`
	var entries []models.SyncHistoryEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("load last sync per source: %w", err)
	}
	out := make(map[string]models.SyncHistoryEntry, len(entries))
	for _, e := range entries {
		out[e.Source] = e
	}
	return out, nil
}
