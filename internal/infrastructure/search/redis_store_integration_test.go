//go:build integration

package search

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisStore(t *testing.T) {
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

	store := NewRedisStore(client, "test:index:")

	require.NoError(t, store.BulkIndex(ctx, "groups", []Document{
		{IDField: "g1", "name": "Web Development"},
		{IDField: "g2", "name": "Apps"},
	}))

	n, err := store.Count(ctx, "groups")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	doc, err := store.Get(ctx, "groups", "g1")
	require.NoError(t, err)
	assert.Equal(t, "Web Development", doc["name"])

	require.NoError(t, store.Unindex(ctx, "groups", "g1"))
	_, err = store.Get(ctx, "groups", "g1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
