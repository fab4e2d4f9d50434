package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"wordguess/internal/domain"
	"wordguess/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const configCachePrefix = "wordbank:"

// ConfigSource is anything that can load a configuration by id.
type ConfigSource interface {
	GetConfig(ctx context.Context, id string) (*domain.WordBankConfig, error)
}

// CachedConfigStore reads configurations through Redis. Redis failures fall
// back to the source; a nil client disables caching.
type CachedConfigStore struct {
	next ConfigSource
	rdb  *redis.Client
	ttl  time.Duration
}

func NewCachedConfigStore(next ConfigSource, rdb *redis.Client, ttl time.Duration) *CachedConfigStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedConfigStore{next: next, rdb: rdb, ttl: ttl}
}

func (s *CachedConfigStore) GetConfig(ctx context.Context, id string) (*domain.WordBankConfig, error) {
	if s.rdb == nil {
		return s.next.GetConfig(ctx, id)
	}

	key := configCachePrefix + id
	raw, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c domain.WordBankConfig
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return &c, nil
		}
		logger.Warn("config cache entry unreadable", "config", id)
	case !errors.Is(err, redis.Nil):
		logger.Warn("config cache read failed", "config", id, "error", err)
	}

	c, err := s.next.GetConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(c); err == nil {
		if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			logger.Warn("config cache write failed", "config", id, "error", err)
		}
	}
	return c, nil
}

// Invalidate drops a cached configuration after it changes.
func (s *CachedConfigStore) Invalidate(ctx context.Context, id string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, configCachePrefix+id).Err()
}
