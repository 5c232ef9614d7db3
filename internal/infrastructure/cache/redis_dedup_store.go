package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDedupKeyPrefix namespaces dedup keys in a shared Redis
const DefaultDedupKeyPrefix = "mozillians:dedup:"

// RedisDedupStore remembers keys in Redis so every instance sees the same marks
type RedisDedupStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisDedupStore creates a store on an existing client
func NewRedisDedupStore(client redis.UniversalClient, keyPrefix string) *RedisDedupStore {
	if keyPrefix == "" {
		keyPrefix = DefaultDedupKeyPrefix
	}
	return &RedisDedupStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed sets the key with SETNX so only the first caller wins
func (s *RedisDedupStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark %s: %w", key, err)
	}
	return ok, nil
}

// Close is a no-op; the client is owned by whoever created it
func (s *RedisDedupStore) Close() error {
	return nil
}
