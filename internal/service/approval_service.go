package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	"github.com/oliveandembers/backoffice-api/internal/repository"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// ApprovalStore is the persistence surface for change requests.
type ApprovalStore interface {
	Create(ctx context.Context, req *models.ApprovalRequest) error
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	GetPendingByKey(ctx context.Context, category models.VariableCategory, key string) (*models.ApprovalRequest, error)
	ListPending(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	Resolve(ctx context.Context, params repository.ResolveApprovalParams) error
}

// ApprovalVariableStore is the config store surface the approval gate needs.
type ApprovalVariableStore interface {
	Get(ctx context.Context, category models.VariableCategory, key string) (*models.ConfigVariable, error)
	Upsert(ctx context.Context, v *models.ConfigVariable) error
}

// ApprovalService runs the change approval workflow. Submissions, approvals
// and rejections for one (category, key) are serialised through a keyed lock
// so at most one pending request exists per key.
type ApprovalService struct {
	approvals ApprovalStore
	variables ApprovalVariableStore
	audit     AuditWriter
	cache     Invalidator
	metrics   *MetricsService
	logger    *zap.Logger
	validate  *validator.Validate
	locks     *lockTable
}

// NewApprovalService constructs the approval workflow service.
func NewApprovalService(
	approvals ApprovalStore,
	variables ApprovalVariableStore,
	audit AuditWriter,
	cache Invalidator,
	metrics *MetricsService,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		approvals: approvals,
		variables: variables,
		audit:     audit,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		validate:  validator.New(),
		locks:     newLockTable(),
	}
}

// lockKey serialises operations touching one (category, key). The variable
// service shares this lock for its direct write path.
func (s *ApprovalService) lockKey(category models.VariableCategory, key string) {
	s.locks.lock(variableKey(category, key))
}

func (s *ApprovalService) unlockKey(category models.VariableCategory, key string) {
	s.locks.unlock(variableKey(category, key))
}

// Submit creates a pending change request. The snapshot of the current value
// is taken at submission time so reviewers see what the change replaces.
func (s *ApprovalService) Submit(ctx context.Context, req dto.CreateApprovalRequest, requesterID string) (*models.ApprovalRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval request")
	}
	if requesterID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "requester is required")
	}
	category := models.VariableCategory(req.Category)
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category: %s", req.Category))
	}

	s.lockKey(category, req.Key)
	defer s.unlockKey(category, req.Key)

	current, err := s.variables.Get(ctx, category, req.Key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read config variable")
	}

	varType, err := resolveType(current, models.VariableType(req.Type))
	if err != nil {
		return nil, err
	}

	proposed, ok := models.NormalizeValue(varType, req.ProposedValue)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrTypeMismatch,
			fmt.Sprintf("proposed value %q is not a valid %s", req.ProposedValue, varType))
	}

	if _, err := s.approvals.GetPendingByKey(ctx, category, req.Key); err == nil {
		return nil, appErrors.ErrDuplicatePendingRequest
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check pending approvals")
	}

	request := &models.ApprovalRequest{
		Category:      category,
		Key:           req.Key,
		ProposedValue: proposed,
		Type:          varType,
		Reason:        req.Reason,
		RequesterID:   requesterID,
		Status:        models.ApprovalStatusPending,
	}
	if current != nil {
		value := current.Value
		request.CurrentValue = &value
	}

	if err := s.approvals.Create(ctx, request); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create approval request")
	}

	s.auditApproval(ctx, models.AuditActionApprovalCreate, request, requesterID)
	s.logger.Info("approval request submitted",
		zap.String("approval_id", request.ID),
		zap.String("category", string(category)),
		zap.String("key", req.Key),
		zap.String("requester", requesterID))
	return request, nil
}

// Approve commits the proposed value and marks the request approved. The
// variable write happens first; if it fails the request stays pending so the
// reviewer can retry.
func (s *ApprovalService) Approve(ctx context.Context, id, resolverID, note string) (*models.ApprovalRequest, error) {
	if resolverID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resolver is required")
	}

	request, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	s.lockKey(request.Category, request.Key)
	defer s.unlockKey(request.Category, request.Key)

	// a reject or force-sync supersede can resolve the request while we wait
	// for the lock; re-read under it so a resolved proposal is never committed
	request, err = s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	current, err := s.variables.Get(ctx, request.Category, request.Key)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read config variable")
	}

	varType := request.Type
	if current != nil {
		varType = current.Type
	}
	value, ok := models.NormalizeValue(varType, request.ProposedValue)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrTypeMismatch,
			fmt.Sprintf("proposed value %q is not a valid %s", request.ProposedValue, varType))
	}

	variable := &models.ConfigVariable{
		Category:  request.Category,
		Key:       request.Key,
		Value:     value,
		Type:      varType,
		UpdatedBy: &resolverID,
	}
	if current != nil {
		variable.Description = current.Description
	}
	if err := s.variables.Upsert(ctx, variable); err != nil {
		// request stays pending, the reviewer can approve again
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit approved value")
	}

	resolvedAt := time.Now().UTC()
	params := repository.ResolveApprovalParams{
		ID:         request.ID,
		Status:     models.ApprovalStatusApproved,
		ResolverID: resolverID,
		ResolvedAt: resolvedAt,
	}
	if note != "" {
		params.ResolutionReason = &note
	}
	if err := s.approvals.Resolve(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRequestAlreadyResolved
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve approval request")
	}

	request.Status = models.ApprovalStatusApproved
	request.ResolverID = &resolverID
	request.ResolvedAt = &resolvedAt
	request.ResolutionReason = params.ResolutionReason

	s.metrics.RecordApprovalResolution(string(models.ApprovalStatusApproved))
	s.auditApproval(ctx, models.AuditActionApprovalResolve, request, resolverID)

	if err := s.cache.Invalidate(ctx, request.Category, request.Key); err != nil {
		s.logger.Warn("approval cache invalidation failed",
			zap.String("approval_id", request.ID),
			zap.Error(err))
	}

	s.logger.Info("approval request approved",
		zap.String("approval_id", request.ID),
		zap.String("category", string(request.Category)),
		zap.String("key", request.Key),
		zap.String("resolver", resolverID))
	return request, nil
}

// Reject marks the request rejected without touching the store. A rejection
// reason is mandatory so the requester learns why.
func (s *ApprovalService) Reject(ctx context.Context, id, resolverID, reason string) (*models.ApprovalRequest, error) {
	if resolverID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "resolver is required")
	}
	if reason == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}

	request, err := s.loadPending(ctx, id)
	if err != nil {
		return nil, err
	}

	s.lockKey(request.Category, request.Key)
	defer s.unlockKey(request.Category, request.Key)

	resolvedAt := time.Now().UTC()
	err = s.approvals.Resolve(ctx, repository.ResolveApprovalParams{
		ID:               request.ID,
		Status:           models.ApprovalStatusRejected,
		ResolverID:       resolverID,
		ResolvedAt:       resolvedAt,
		ResolutionReason: &reason,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrRequestAlreadyResolved
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolve approval request")
	}

	request.Status = models.ApprovalStatusRejected
	request.ResolverID = &resolverID
	request.ResolvedAt = &resolvedAt
	request.ResolutionReason = &reason

	s.metrics.RecordApprovalResolution(string(models.ApprovalStatusRejected))
	s.auditApproval(ctx, models.AuditActionApprovalResolve, request, resolverID)

	s.logger.Info("approval request rejected",
		zap.String("approval_id", request.ID),
		zap.String("category", string(request.Category)),
		zap.String("key", request.Key),
		zap.String("resolver", resolverID))
	return request, nil
}

// SupersedePending rejects the pending request for a key on behalf of the
// sync engine. It holds the same per-key lock as Submit and Approve, so a
// supersede never interleaves with an in-flight resolution for the key.
// Returns false when no pending request exists or it resolved concurrently.
func (s *ApprovalService) SupersedePending(ctx context.Context, category models.VariableCategory, key, resolverID, reason string) (bool, error) {
	s.lockKey(category, key)
	defer s.unlockKey(category, key)

	pending, err := s.approvals.GetPendingByKey(ctx, category, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check pending approvals")
	}

	resolvedAt := time.Now().UTC()
	err = s.approvals.Resolve(ctx, repository.ResolveApprovalParams{
		ID:               pending.ID,
		Status:           models.ApprovalStatusRejected,
		ResolverID:       resolverID,
		ResolvedAt:       resolvedAt,
		ResolutionReason: &reason,
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "supersede approval request")
	}

	pending.Status = models.ApprovalStatusRejected
	pending.ResolverID = &resolverID
	pending.ResolvedAt = &resolvedAt
	pending.ResolutionReason = &reason

	s.metrics.RecordApprovalResolution(string(models.ApprovalStatusRejected))
	s.auditApproval(ctx, models.AuditActionApprovalResolve, pending, resolverID)
	return true, nil
}

// ListPending returns open requests oldest first.
func (s *ApprovalService) ListPending(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category: %s", filter.Category))
	}
	requests, err := s.approvals.ListPending(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list pending approvals")
	}
	return requests, nil
}

func (s *ApprovalService) loadPending(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	request, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "approval request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load approval request")
	}
	if request.Status != models.ApprovalStatusPending {
		return nil, appErrors.ErrRequestAlreadyResolved
	}
	return request, nil
}

func (s *ApprovalService) auditApproval(ctx context.Context, action string, request *models.ApprovalRequest, actor string) {
	if s.audit == nil {
		return
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return
	}
	entry := models.AuditLog{
		UserID:     &actor,
		Action:     action,
		Resource:   "approval_request",
		ResourceID: &request.ID,
		NewValues:  payload,
	}
	if err := s.audit.CreateAuditLog(ctx, &entry); err != nil {
		s.logger.Warn("audit approval failed", zap.String("approval_id", request.ID), zap.Error(err))
	}
}

// resolveType picks the type tag for a change. Existing keys keep their
// creation type; new keys must declare one explicitly, never inferred.
func resolveType(current *models.ConfigVariable, requested models.VariableType) (models.VariableType, error) {
	if current != nil {
		if requested != "" && requested != current.Type {
			return "", appErrors.Clone(appErrors.ErrTypeMismatch,
				fmt.Sprintf("variable is %s, request says %s", current.Type, requested))
		}
		return current.Type, nil
	}
	if requested == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "type is required when proposing a new key")
	}
	if !requested.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown type: %s", requested))
	}
	return requested, nil
}
