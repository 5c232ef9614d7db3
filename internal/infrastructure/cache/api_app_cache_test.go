package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockAPIAppRepository struct {
	mock.Mock
}

func (m *MockAPIAppRepository) FindByKeyDigest(ctx context.Context, digest string) (*directory.APIApp, error) {
	args := m.Called(ctx, digest)
	if app, ok := args.Get(0).(*directory.APIApp); ok {
		return app, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAPIAppRepository) Save(ctx context.Context, app *directory.APIApp) error {
	return m.Called(ctx, app).Error(0)
}

// unreachableRedis fails every command quickly
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 50 * time.Millisecond,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestAPIAppCache_DegradesToRepository(t *testing.T) {
	app := &directory.APIApp{ID: uuid.New(), Name: "phonebook", KeyDigest: "abc", PrivacyLevel: directory.PrivacyEmployees, Enabled: true}
	repo := new(MockAPIAppRepository)
	repo.On("FindByKeyDigest", mock.Anything, "abc").Return(app, nil)
	repo.On("FindByKeyDigest", mock.Anything, "missing").Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, app).Return(nil)

	c := NewAPIAppCache(repo, unreachableRedis(t), 0, zap.NewNop())
	ctx := context.Background()

	found, err := c.FindByKeyDigest(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, app, found)

	_, err = c.FindByKeyDigest(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	assert.NoError(t, c.Save(ctx, app))
	repo.AssertExpectations(t)
}

func TestCachedAPIApp_RoundTrip(t *testing.T) {
	app := &directory.APIApp{
		ID:           uuid.New(),
		Name:         "phonebook",
		KeyDigest:    directory.DigestAPIKey("s3cret"),
		PrivacyLevel: directory.PrivacyPrivileged,
		Enabled:      true,
		CreatedAt:    time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, app, toCachedAPIApp(app).toDomain())
}
