package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/oliveandembers/backoffice-api/internal/models"
	appErrors "github.com/oliveandembers/backoffice-api/pkg/errors"
)

// CacheRepository abstracts Redis access for snapshot caching and the
// invalidation broadcast.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// InvalidationEvent is broadcast to config consumers after a committed write.
type InvalidationEvent struct {
	Category string    `json:"category,omitempty"`
	Key      string    `json:"key,omitempty"`
	At       time.Time `json:"at"`
}

// CacheService owns the config snapshot cache and the invalidation signal.
// The signal is dispatched synchronously; a write is not reported complete
// until dispatch has happened.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	logger     *zap.Logger
	keyPrefix  string
	channel    string
	defaultTTL time.Duration
	enabled    bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, logger *zap.Logger, keyPrefix, channel string, defaultTTL time.Duration, enabled bool) *CacheService {
	if keyPrefix == "" {
		keyPrefix = "config"
	}
	if channel == "" {
		channel = "config:invalidate"
	}
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		repo:       repo,
		metrics:    metrics,
		logger:     logger,
		keyPrefix:  keyPrefix,
		channel:    channel,
		defaultTTL: defaultTTL,
		enabled:    enabled,
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached snapshot. It returns true on a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, s.prefixed(key), dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores a snapshot under the service prefix.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.Set(ctx, s.prefixed(key), value, s.defaultTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Invalidate drops cached snapshots for the given scope and broadcasts the
// event. Empty category widens the scope to every cached config entry.
func (s *CacheService) Invalidate(ctx context.Context, category models.VariableCategory, key string) error {
	if !s.Enabled() {
		s.metrics.RecordInvalidation()
		return nil
	}

	pattern := s.keyPrefix + ":*"
	if category != "" {
		pattern = fmt.Sprintf("%s:%s:*", s.keyPrefix, category)
	}
	err := s.repo.DeleteByPattern(ctx, pattern)
	if err == nil && category != "" {
		// list snapshots span categories, drop them on any scoped write
		err = s.repo.DeleteByPattern(ctx, s.keyPrefix+":variables*")
	}
	if err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}

	event := InvalidationEvent{Category: string(category), Key: key, At: time.Now().UTC()}
	if err := s.repo.Publish(ctx, s.channel, event); err != nil {
		s.logger.Warn("invalidation publish failed", zap.Error(err))
		return err
	}

	s.metrics.RecordInvalidation()
	return nil
}

func (s *CacheService) prefixed(key string) string {
	return s.keyPrefix + ":" + key
}
