package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const apiAppKeyPrefix = "mozillians:apiapp:"

// DefaultAPIAppTTL bounds how long a revoked or changed key keeps working
const DefaultAPIAppTTL = 5 * time.Minute

type cachedAPIApp struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	KeyDigest    string    `json:"key_digest"`
	PrivacyLevel int       `json:"privacy_level"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

func toCachedAPIApp(a *directory.APIApp) cachedAPIApp {
	return cachedAPIApp{
		ID:           a.ID,
		Name:         a.Name,
		KeyDigest:    a.KeyDigest,
		PrivacyLevel: int(a.PrivacyLevel),
		Enabled:      a.Enabled,
		CreatedAt:    a.CreatedAt,
	}
}

func (c cachedAPIApp) toDomain() *directory.APIApp {
	return &directory.APIApp{
		ID:           c.ID,
		Name:         c.Name,
		KeyDigest:    c.KeyDigest,
		PrivacyLevel: directory.PrivacyLevel(c.PrivacyLevel),
		Enabled:      c.Enabled,
		CreatedAt:    c.CreatedAt,
	}
}

// APIAppCache is a read-through Redis cache in front of an APIAppRepository.
// Every API request resolves its key, so lookups are cached by digest.
type APIAppCache struct {
	next   directory.APIAppRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewAPIAppCache wraps next. A non-positive ttl uses DefaultAPIAppTTL.
func NewAPIAppCache(next directory.APIAppRepository, client redis.UniversalClient, ttl time.Duration, logger *zap.Logger) *APIAppCache {
	if ttl <= 0 {
		ttl = DefaultAPIAppTTL
	}
	return &APIAppCache{next: next, client: client, ttl: ttl, logger: logger}
}

// FindByKeyDigest serves from Redis and falls through to the repository on
// a miss. Redis failures degrade to the repository.
func (c *APIAppCache) FindByKeyDigest(ctx context.Context, digest string) (*directory.APIApp, error) {
	key := apiAppKeyPrefix + digest

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached cachedAPIApp
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			return cached.toDomain(), nil
		}
		c.logger.Warn("Discarding unreadable cached API app", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("API app cache read failed", zap.Error(err))
	}

	app, err := c.next.FindByKeyDigest(ctx, digest)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(toCachedAPIApp(app)); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.Warn("API app cache write failed", zap.Error(err))
		}
	}
	return app, nil
}

// Save writes through and drops the cached entry
func (c *APIAppCache) Save(ctx context.Context, app *directory.APIApp) error {
	if err := c.next.Save(ctx, app); err != nil {
		return err
	}
	if err := c.client.Del(ctx, apiAppKeyPrefix+app.KeyDigest).Err(); err != nil {
		c.logger.Warn("API app cache invalidation failed", zap.Error(err))
	}
	return nil
}

var _ directory.APIAppRepository = (*APIAppCache)(nil)
