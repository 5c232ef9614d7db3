package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrRedisDisabled is returned when Redis is turned off in config
var ErrRedisDisabled = errors.New("redis is disabled")

// DedupStore is the common surface of the dedup stores
type DedupStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Close() error
}

var (
	_ DedupStore = (*InMemoryDedupStore)(nil)
	_ DedupStore = (*RedisDedupStore)(nil)
)

// NewRedisClient opens a client for cfg and verifies it with PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, ErrRedisDisabled
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr(), err)
	}
	return client, nil
}

// Factory picks Redis-backed components when Redis is reachable and
// process-local ones otherwise.
type Factory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	client                *redis.Client
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// in-memory components. Default true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a factory; call Connect before asking for components
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Connect dials Redis. With fallback allowed an unreachable or disabled
// Redis is logged and nil is returned.
func (f *Factory) Connect(ctx context.Context) error {
	client, err := NewRedisClient(ctx, f.cfg)
	if err == nil {
		f.client = client
		f.logger.Info("Connected to Redis", zap.String("addr", f.cfg.RedisAddr()))
		return nil
	}
	if !f.allowInMemoryFallback {
		return fmt.Errorf("redis required but unavailable: %w", err)
	}
	if errors.Is(err, ErrRedisDisabled) {
		f.logger.Info("Redis disabled, using in-memory components")
	} else {
		f.logger.Warn("Redis unavailable, using in-memory components", zap.Error(err))
	}
	return nil
}

// Client returns the connected client, or nil when running in memory
func (f *Factory) Client() *redis.Client {
	return f.client
}

// DedupStore returns a Redis store when connected, in-memory otherwise
func (f *Factory) DedupStore() DedupStore {
	if f.client != nil {
		return NewRedisDedupStore(f.client, DefaultDedupKeyPrefix)
	}
	return NewInMemoryDedupStore(0)
}

// Close releases the Redis client if one was opened
func (f *Factory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}
