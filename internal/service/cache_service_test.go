package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

type cacheRepoStub struct {
	store      map[string]interface{}
	deleted    []string
	published  []InvalidationEvent
	channels   []string
	getErr     error
	deleteErr  error
	publishErr error
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{store: make(map[string]interface{})}
}

func (r *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	if r.getErr != nil {
		return r.getErr
	}
	if _, ok := r.store[key]; !ok {
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (r *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	r.store[key] = value
	return nil
}

func (r *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	r.deleted = append(r.deleted, pattern)
	return nil
}

func (r *cacheRepoStub) Publish(ctx context.Context, channel string, payload interface{}) error {
	if r.publishErr != nil {
		return r.publishErr
	}
	r.channels = append(r.channels, channel)
	if event, ok := payload.(InvalidationEvent); ok {
		r.published = append(r.published, event)
	}
	return nil
}

func TestCacheGetHitAndMiss(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, nil, "config", "config:invalidate", time.Minute, true)

	var dest []models.ConfigVariable
	hit, err := svc.Get(context.Background(), "variables", &dest)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "variables", []models.ConfigVariable{}))
	hit, err = svc.Get(context.Background(), "variables", &dest)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Contains(t, repo.store, "config:variables")
}

func TestCacheInvalidateScopedToCategory(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, nil, "config", "config:invalidate", time.Minute, true)

	err := svc.Invalidate(context.Background(), models.CategoryPricing, "BASE_PRICE_PER_PERSON")
	require.NoError(t, err)

	assert.Equal(t, []string{"config:pricing:*", "config:variables*"}, repo.deleted)
	require.Len(t, repo.published, 1)
	assert.Equal(t, "pricing", repo.published[0].Category)
	assert.Equal(t, "BASE_PRICE_PER_PERSON", repo.published[0].Key)
	assert.Equal(t, []string{"config:invalidate"}, repo.channels)
}

func TestCacheInvalidateAllCategories(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, nil, "config", "config:invalidate", time.Minute, true)

	err := svc.Invalidate(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"config:*"}, repo.deleted)
	require.Len(t, repo.published, 1)
	assert.Empty(t, repo.published[0].Category)
}

func TestCacheInvalidateReportsDeleteFailure(t *testing.T) {
	repo := newCacheRepoStub()
	repo.deleteErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, nil, "config", "config:invalidate", time.Minute, true)

	err := svc.Invalidate(context.Background(), models.CategoryPricing, "BASE_PRICE_PER_PERSON")
	require.Error(t, err)
	assert.Empty(t, repo.published)
}

func TestCacheDisabledIsNoop(t *testing.T) {
	repo := newCacheRepoStub()
	svc := NewCacheService(repo, nil, nil, "config", "config:invalidate", time.Minute, false)

	hit, err := svc.Get(context.Background(), "variables", nil)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Invalidate(context.Background(), models.CategoryPricing, "X"))
	assert.Empty(t, repo.deleted)
	assert.Empty(t, repo.published)
}
