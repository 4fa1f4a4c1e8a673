package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// VariableReader is the read surface for variable listings.
type VariableReader interface {
	List(ctx context.Context) ([]models.ConfigVariable, error)
	ListByCategories(ctx context.Context, categories []models.VariableCategory) ([]models.ConfigVariable, error)
	Get(ctx context.Context, category models.VariableCategory, key string) (*models.ConfigVariable, error)
	Upsert(ctx context.Context, v *models.ConfigVariable) error
}

const variablesCacheKey = "variables"

// VariableService exposes the config store to the admin surface. Writes to
// critical and high priority categories are routed through the approval gate
// instead of committing directly.
type VariableService struct {
	variables VariableReader
	approvals *ApprovalService
	audit     AuditWriter
	cache     *CacheService
	logger    *zap.Logger
	validate  *validator.Validate
}

// NewVariableService constructs the variable service. It shares the approval
// service's per-key lock so direct writes and approvals never interleave on
// the same key.
func NewVariableService(
	variables VariableReader,
	approvals *ApprovalService,
	audit AuditWriter,
	cache *CacheService,
	logger *zap.Logger,
) *VariableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariableService{
		variables: variables,
		approvals: approvals,
		audit:     audit,
		cache:     cache,
		logger:    logger,
		validate:  validator.New(),
	}
}

// List returns every variable, optionally filtered by category. The full
// listing is served from cache when possible.
func (s *VariableService) List(ctx context.Context, category models.VariableCategory) ([]dto.VariableItem, error) {
	if category != "" {
		if !category.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category: %s", category))
		}
		vars, err := s.variables.ListByCategories(ctx, []models.VariableCategory{category})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list config variables")
		}
		return dto.NewVariableItems(vars), nil
	}

	var cached []dto.VariableItem
	if hit, err := s.cache.Get(ctx, variablesCacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	vars, err := s.variables.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list config variables")
	}
	items := dto.NewVariableItems(vars)
	if err := s.cache.Set(ctx, variablesCacheKey, items); err != nil {
		s.logger.Debug("variable list cache set failed", zap.Error(err))
	}
	return items, nil
}

// Get returns a single variable.
func (s *VariableService) Get(ctx context.Context, category models.VariableCategory, key string) (*dto.VariableItem, error) {
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category: %s", category))
	}
	v, err := s.variables.Get(ctx, category, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "config variable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read config variable")
	}
	item := dto.NewVariableItem(*v)
	return &item, nil
}

// Update writes a variable. Gated categories return a pending approval
// request; ungated categories commit immediately and dispatch the cache
// invalidation signal before returning.
func (s *VariableService) Update(ctx context.Context, category models.VariableCategory, key string, req dto.UpdateVariableRequest, actor string) (*dto.UpdateVariableResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update request")
	}
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown category: %s", category))
	}
	if actor == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "actor is required")
	}

	if models.PriorityFor(category).RequiresApproval() {
		if req.Reason == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("%s changes need review, a reason is required", category))
		}
		request, err := s.approvals.Submit(ctx, dto.CreateApprovalRequest{
			Category:      string(category),
			Key:           key,
			ProposedValue: req.Value,
			Reason:        req.Reason,
		}, actor)
		if err != nil {
			return nil, err
		}
		item := dto.NewApprovalItem(*request)
		return &dto.UpdateVariableResponse{Approval: &item, Gated: true}, nil
	}

	s.approvals.lockKey(category, key)
	defer s.approvals.unlockKey(category, key)

	current, err := s.variables.Get(ctx, category, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// keys are created by sync or approvals, never by direct writes
			return nil, appErrors.Clone(appErrors.ErrNotFound, "config variable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "read config variable")
	}

	value, ok := models.NormalizeValue(current.Type, req.Value)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrTypeMismatch,
			fmt.Sprintf("value %q is not a valid %s", req.Value, current.Type))
	}

	updated := &models.ConfigVariable{
		Category:    category,
		Key:         key,
		Value:       value,
		Type:        current.Type,
		Description: current.Description,
		UpdatedBy:   &actor,
	}
	if err := s.variables.Upsert(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update config variable")
	}

	s.auditUpdate(ctx, current, updated, actor)

	if err := s.cache.Invalidate(ctx, category, key); err != nil {
		s.logger.Warn("variable cache invalidation failed",
			zap.String("category", string(category)),
			zap.String("key", key),
			zap.Error(err))
	}

	item := dto.NewVariableItem(*updated)
	return &dto.UpdateVariableResponse{Variable: &item, Gated: false}, nil
}

func (s *VariableService) auditUpdate(ctx context.Context, before, after *models.ConfigVariable, actor string) {
	if s.audit == nil {
		return
	}
	oldValues, err := json.Marshal(before)
	if err != nil {
		return
	}
	newValues, err := json.Marshal(after)
	if err != nil {
		return
	}
	resourceID := variableKey(after.Category, after.Key)
	entry := models.AuditLog{
		UserID:     &actor,
		Action:     models.AuditActionConfigUpdate,
		Resource:   "config_variable",
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
	}
	if err := s.audit.CreateAuditLog(ctx, &entry); err != nil {
		s.logger.Warn("audit variable update failed", zap.Error(err))
	}
}
