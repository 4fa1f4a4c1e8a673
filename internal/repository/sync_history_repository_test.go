package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveandembers/backoffice-api/internal/models"
)

func historyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "source", "sync_type", "started_at", "finished_at", "outcome",
		"added_count", "changed_count", "removed_count", "error",
	})
}

func TestSyncHistoryRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSyncHistoryRepository(db)
	mock.ExpectExec("INSERT INTO sync_history").
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.SyncHistoryEntry{
		Source:     "pricing",
		SyncType:   models.SyncTypeAuto,
		StartedAt:  time.Now().UTC(),
		Outcome:    models.SyncOutcomeApplied,
		AddedCount: 2,
	}
	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.FinishedAt.IsZero())
}

func TestSyncHistoryRepositoryListWithFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSyncHistoryRepository(db)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("pricing", "FORCE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	rows := historyRows().
		AddRow("run-1", "pricing", "FORCE", time.Now(), time.Now(), "APPLIED", 1, 0, 2, nil)
	mock.ExpectQuery("SELECT id, source, sync_type").
		WithArgs("pricing", "FORCE").
		WillReturnRows(rows)

	entries, total, err := repo.List(context.Background(), models.SyncHistoryFilter{
		Source:   "pricing",
		SyncType: models.SyncTypeForce,
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, entries, 1)
	assert.Equal(t, "run-1", entries[0].ID)
	assert.Equal(t, 2, entries[0].RemovedCount)
}

func TestSyncHistoryRepositoryListDefaultsPagination(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSyncHistoryRepository(db)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("LIMIT 20 OFFSET 0").
		WillReturnRows(historyRows())

	entries, total, err := repo.List(context.Background(), models.SyncHistoryFilter{Page: 0, PageSize: -5})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestSyncHistoryRepositoryLastBySource(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSyncHistoryRepository(db)
	rows := historyRows().
		AddRow("run-2", "pricing", "AUTO", time.Now(), time.Now(), "NO_CHANGES", 0, 0, 0, nil).
		AddRow("run-3", "travel", "AUTO", time.Now(), time.Now(), "APPLIED", 1, 1, 0, nil)
	mock.ExpectQuery("SELECT DISTINCT ON").
		WillReturnRows(rows)

	last, err := repo.LastBySource(context.Background())
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, models.SyncOutcomeNoChanges, last["pricing"].Outcome)
	assert.Equal(t, "run-3", last["travel"].ID)
}
