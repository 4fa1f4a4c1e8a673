package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveandembers/backoffice-api/internal/dto"
	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

type variableRepoStub struct {
	*varStoreStub
}

func newVariableRepoStub(vars ...models.ConfigVariable) *variableRepoStub {
	return &variableRepoStub{varStoreStub: newVarStoreStub(vars...)}
}

func (s *variableRepoStub) List(ctx context.Context) ([]models.ConfigVariable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConfigVariable, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, *v)
	}
	return out, nil
}

func (s *variableRepoStub) ListByCategories(ctx context.Context, categories []models.VariableCategory) ([]models.ConfigVariable, error) {
	wanted := make(map[models.VariableCategory]bool, len(categories))
	for _, c := range categories {
		wanted[c] = true
	}
	all, _ := s.List(ctx)
	var out []models.ConfigVariable
	for _, v := range all {
		if wanted[v.Category] {
			out = append(out, v)
		}
	}
	return out, nil
}

func newVariableFixture(vars ...models.ConfigVariable) (*VariableService, *variableRepoStub, *cacheRepoStub) {
	store := newVariableRepoStub(vars...)
	cacheRepo := newCacheRepoStub()
	cacheSvc := NewCacheService(cacheRepo, nil, nil, "config", "config:invalidate", time.Minute, true)
	approvals := NewApprovalService(newApprovalRepoStub(), store, &auditStub{}, cacheSvc, nil, nil)
	svc := NewVariableService(store, approvals, &auditStub{}, cacheSvc, nil)
	return svc, store, cacheRepo
}

func travelVariable() models.ConfigVariable {
	return models.ConfigVariable{
		Category: models.CategoryTravel,
		Key:      "MAX_TRAVEL_KM",
		Value:    "100",
		Type:     models.VariableTypeNumber,
	}
}

func TestVariableUpdateUngatedCommitsAndInvalidates(t *testing.T) {
	svc, store, cacheRepo := newVariableFixture(travelVariable())

	result, err := svc.Update(context.Background(), models.CategoryTravel, "MAX_TRAVEL_KM",
		dto.UpdateVariableRequest{Value: "120"}, "staff-1")
	require.NoError(t, err)
	assert.False(t, result.Gated)
	require.NotNil(t, result.Variable)
	assert.Equal(t, "120", result.Variable.Value)

	v, err := store.Get(context.Background(), models.CategoryTravel, "MAX_TRAVEL_KM")
	require.NoError(t, err)
	assert.Equal(t, "120", v.Value)

	require.Len(t, cacheRepo.published, 1)
	assert.Equal(t, "travel", cacheRepo.published[0].Category)
	assert.Equal(t, "MAX_TRAVEL_KM", cacheRepo.published[0].Key)
}

func TestVariableUpdateGatedCreatesApproval(t *testing.T) {
	svc, store, cacheRepo := newVariableFixture(models.ConfigVariable{
		Category: models.CategoryPricing,
		Key:      "BASE_PRICE_PER_PERSON",
		Value:    "75",
		Type:     models.VariableTypeNumber,
	})

	result, err := svc.Update(context.Background(), models.CategoryPricing, "BASE_PRICE_PER_PERSON",
		dto.UpdateVariableRequest{Value: "80", Reason: "seasonal adjustment"}, "staff-1")
	require.NoError(t, err)
	assert.True(t, result.Gated)
	require.NotNil(t, result.Approval)
	assert.Equal(t, "PENDING", result.Approval.Status)
	assert.Equal(t, "75", result.Approval.CurrentValue)

	// the store is untouched until a reviewer approves
	v, err := store.Get(context.Background(), models.CategoryPricing, "BASE_PRICE_PER_PERSON")
	require.NoError(t, err)
	assert.Equal(t, "75", v.Value)
	assert.Empty(t, cacheRepo.published)
}

func TestVariableUpdateGatedRequiresReason(t *testing.T) {
	svc, _, _ := newVariableFixture(models.ConfigVariable{
		Category: models.CategoryDeposit,
		Key:      "DEPOSIT_PERCENT",
		Value:    "25",
		Type:     models.VariableTypeNumber,
	})

	_, err := svc.Update(context.Background(), models.CategoryDeposit, "DEPOSIT_PERCENT",
		dto.UpdateVariableRequest{Value: "30"}, "staff-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestVariableUpdateUnknownKeyNotFound(t *testing.T) {
	svc, _, _ := newVariableFixture()

	_, err := svc.Update(context.Background(), models.CategoryTravel, "BRAND_NEW",
		dto.UpdateVariableRequest{Value: "1"}, "staff-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestVariableUpdateTypeMismatch(t *testing.T) {
	svc, _, _ := newVariableFixture(travelVariable())

	_, err := svc.Update(context.Background(), models.CategoryTravel, "MAX_TRAVEL_KM",
		dto.UpdateVariableRequest{Value: "far away"}, "staff-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrTypeMismatch.Code, appErr.Code)
}

func TestVariableListFilterValidatesCategory(t *testing.T) {
	svc, _, _ := newVariableFixture(travelVariable())

	items, err := svc.List(context.Background(), models.CategoryTravel)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "MEDIUM", items[0].Priority)

	_, err = svc.List(context.Background(), models.VariableCategory("mystery"))
	require.Error(t, err)
}
