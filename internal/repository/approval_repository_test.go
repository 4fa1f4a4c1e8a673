package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

func approvalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "category", "key", "current_value", "proposed_value", "type", "reason",
		"requester_id", "status", "resolver_id", "resolution_reason", "created_at", "resolved_at",
	})
}

func TestApprovalRepositoryCreateFillsDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec("INSERT INTO approval_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := &models.ApprovalRequest{
		Category:      models.CategoryPricing,
		Key:           "BASE_PRICE_PER_PERSON",
		ProposedValue: "80",
		Type:          models.VariableTypeNumber,
		Reason:        "seasonal adjustment",
		RequesterID:   "staff-1",
	}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, models.ApprovalStatusPending, req.Status)
	assert.False(t, req.CreatedAt.IsZero())
}

func TestApprovalRepositoryCreateDuplicatePending(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec("INSERT INTO approval_requests").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "approval_requests_pending_key_idx"})

	req := &models.ApprovalRequest{
		Category:      models.CategoryPricing,
		Key:           "BASE_PRICE_PER_PERSON",
		ProposedValue: "80",
		Type:          models.VariableTypeNumber,
		Reason:        "seasonal adjustment",
		RequesterID:   "staff-1",
	}
	err := repo.Create(context.Background(), req)
	assert.ErrorIs(t, err, appErrors.ErrDuplicatePendingRequest)
}

func TestApprovalRepositoryGetPendingByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	rows := approvalRows().
		AddRow("req-1", "pricing", "BASE_PRICE_PER_PERSON", "75", "80", "NUMBER", "seasonal",
			"staff-1", "PENDING", nil, nil, time.Now(), nil)
	mock.ExpectQuery("SELECT id, category, key").
		WithArgs("pricing", "BASE_PRICE_PER_PERSON").
		WillReturnRows(rows)

	req, err := repo.GetPendingByKey(context.Background(), models.CategoryPricing, "BASE_PRICE_PER_PERSON")
	require.NoError(t, err)
	assert.Equal(t, "req-1", req.ID)
	assert.Equal(t, models.ApprovalStatusPending, req.Status)
}

func TestApprovalRepositoryListPendingFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	rows := approvalRows().
		AddRow("req-1", "deposit", "DEPOSIT_PERCENT", "25", "30", "NUMBER", "costs",
			"staff-1", "PENDING", nil, nil, time.Now(), nil)
	mock.ExpectQuery("SELECT id, category, key").
		WithArgs("deposit", "staff-1").
		WillReturnRows(rows)

	requests, err := repo.ListPending(context.Background(), models.ApprovalFilter{
		Category:    models.CategoryDeposit,
		RequesterID: "staff-1",
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "req-1", requests[0].ID)
}

func TestApprovalRepositoryResolve(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec("UPDATE approval_requests").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Resolve(context.Background(), ResolveApprovalParams{
		ID:         "req-1",
		Status:     models.ApprovalStatusApproved,
		ResolverID: "owner-1",
		ResolvedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestApprovalRepositoryResolveAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec("UPDATE approval_requests").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), ResolveApprovalParams{
		ID:         "req-1",
		Status:     models.ApprovalStatusRejected,
		ResolverID: "owner-1",
		ResolvedAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
