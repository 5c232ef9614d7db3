package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each index in one Redis hash: field = id, value = JSON document
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStore creates a store whose hashes are named keyPrefix+index
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(index string) string {
	return s.keyPrefix + index
}

// BulkIndex writes all documents in one pipeline
func (s *RedisStore) BulkIndex(ctx context.Context, index string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	values := make([]any, 0, 2*len(docs))
	for _, doc := range docs {
		id, err := documentID(doc)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("search: failed to encode document %s: %w", id, err)
		}
		values = append(values, id, raw)
	}
	if err := s.client.HSet(ctx, s.key(index), values...).Err(); err != nil {
		return fmt.Errorf("search: bulk index into %s failed: %w", index, err)
	}
	return nil
}

// Unindex deletes one document
func (s *RedisStore) Unindex(ctx context.Context, index, id string) error {
	if err := s.client.HDel(ctx, s.key(index), id).Err(); err != nil {
		return fmt.Errorf("search: unindex %s from %s failed: %w", id, index, err)
	}
	return nil
}

// Get loads one document
func (s *RedisStore) Get(ctx context.Context, index, id string) (Document, error) {
	raw, err := s.client.HGet(ctx, s.key(index), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("search: get %s from %s failed: %w", id, index, err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("search: failed to decode document %s: %w", id, err)
	}
	return doc, nil
}

// Count returns the hash length
func (s *RedisStore) Count(ctx context.Context, index string) (int64, error) {
	n, err := s.client.HLen(ctx, s.key(index)).Result()
	if err != nil {
		return 0, fmt.Errorf("search: count %s failed: %w", index, err)
	}
	return n, nil
}

var _ Store = (*RedisStore)(nil)
