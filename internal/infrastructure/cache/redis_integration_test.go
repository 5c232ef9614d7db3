//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisIntegration(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()

	t.Run("dedup store", func(t *testing.T) {
		store := NewRedisDedupStore(client, "")
		isNew, err := store.MarkProcessed(ctx, "evt", time.Minute)
		require.NoError(t, err)
		assert.True(t, isNew)

		isNew, err = store.MarkProcessed(ctx, "evt", time.Minute)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("api app cache serves second read from redis", func(t *testing.T) {
		app := &directory.APIApp{ID: uuid.New(), Name: "phonebook", KeyDigest: "digest", PrivacyLevel: directory.PrivacyEmployees, Enabled: true}
		repo := new(MockAPIAppRepository)
		repo.On("FindByKeyDigest", mock.Anything, "digest").Return(app, nil).Once()
		repo.On("Save", mock.Anything, app).Return(nil)

		c := NewAPIAppCache(repo, client, time.Minute, zap.NewNop())
		for i := 0; i < 2; i++ {
			found, err := c.FindByKeyDigest(ctx, "digest")
			require.NoError(t, err)
			assert.Equal(t, directory.PrivacyEmployees, found.PrivacyLevel)
		}
		repo.AssertNumberOfCalls(t, "FindByKeyDigest", 1)

		require.NoError(t, c.Save(ctx, app))
		exists, err := client.Exists(ctx, apiAppKeyPrefix+"digest").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})
}
