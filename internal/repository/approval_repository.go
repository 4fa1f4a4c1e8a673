package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// uniqueViolation is the Postgres error code raised by the partial unique
// index on (category, key) WHERE status = 'PENDING'.
const uniqueViolation = "23505"

// ApprovalRepository persists change approval requests.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// Create inserts a new pending request. A concurrent pending request for the
// same (category, key) surfaces as ErrDuplicatePendingRequest.
func (r *ApprovalRepository) Create(ctx context.Context, req *models.ApprovalRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.ApprovalStatusPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO approval_requests
	(id, category, key, current_value, proposed_value, type, reason, requester_id, status, resolver_id, resolution_reason, created_at, resolved_at)
	VALUES (:id, :category, :key, :current_value, :proposed_value, :type, :reason, :requester_id, :status, :resolver_id, :resolution_reason, :created_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return appErrors.ErrDuplicatePendingRequest
		}
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

// GetByID fetches a request by identifier.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	const query = `SELECT id, category, key, current_value, proposed_value, type, reason, requester_id,
	status, resolver_id, resolution_reason, created_at, resolved_at
	FROM approval_requests WHERE id = $1`
	var req models.ApprovalRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// GetPendingByKey returns the pending request for a key, if any.
func (r *ApprovalRepository) GetPendingByKey(ctx context.Context, category models.VariableCategory, key string) (*models.ApprovalRequest, error) {
	const query = `SELECT id, category, key, current_value, proposed_value, type, reason, requester_id,
	status, resolver_id, resolution_reason, created_at, resolved_at
	FROM approval_requests WHERE category = $1 AND key = $2 AND status = 'PENDING'`
	var req models.ApprovalRequest
	if err := r.db.GetContext(ctx, &req, query, category, key); err != nil {
		return nil, err
	}
	return &req, nil
}

// ListPending returns pending requests oldest first, so reviewers work in
// FIFO order.
func (r *ApprovalRepository) ListPending(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	builder := strings.Builder{}
	builder.WriteString(`SELECT id, category, key, current_value, proposed_value, type, reason, requester_id,
	status, resolver_id, resolution_reason, created_at, resolved_at
	FROM approval_requests WHERE status = 'PENDING'`)
	args := make([]interface{}, 0, 2)
	if filter.Category != "" {
		args = append(args, filter.Category)
		builder.WriteString(fmt.Sprintf(" AND category = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		builder.WriteString(fmt.Sprintf(" AND requester_id = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY created_at ASC")

	var requests []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	return requests, nil
}

// ResolveApprovalParams groups mutable columns for resolution.
type ResolveApprovalParams struct {
	ID               string
	Status           models.ApprovalStatus
	ResolverID       string
	ResolvedAt       time.Time
	ResolutionReason *string
}

// Resolve flips a pending request to a terminal status. Returns
// sql.ErrNoRows when the request is missing or already resolved.
func (r *ApprovalRepository) Resolve(ctx context.Context, params ResolveApprovalParams) error {
	const query = `UPDATE approval_requests
	SET status = :status, resolver_id = :resolver_id, resolved_at = :resolved_at, resolution_reason = :resolution_reason
	WHERE id = :id AND status = 'PENDING'`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":                params.ID,
		"status":            params.Status,
		"resolver_id":       params.ResolverID,
		"resolved_at":       params.ResolvedAt,
		"resolution_reason": params.ResolutionReason,
	})
	if err != nil {
		return fmt.Errorf("resolve approval request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
