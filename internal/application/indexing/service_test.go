package indexing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/directory/directorytest"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(cfg config.SearchConfig) (*Service, *search.MemoryStore, *directorytest.MockProfileRepository, *directorytest.MockGroupRepository) {
	store := search.NewMemoryStore()
	profiles := new(directorytest.MockProfileRepository)
	groups := new(directorytest.MockGroupRepository)
	return NewService(cfg, store, profiles, groups, zap.NewNop()), store, profiles, groups
}

func TestIndexObjects_Chunks(t *testing.T) {
	svc, store, profiles, _ := newTestService(config.SearchConfig{ChunkSize: 2})

	var all []*directory.Profile
	var ids []uuid.UUID
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		p := directorytest.NewCompleteProfile(name)
		all = append(all, p)
		ids = append(ids, p.ID)
	}
	for i := 0; i < len(ids); i += 2 {
		end := min(i+2, len(ids))
		profiles.On("FindByIDs", mock.Anything, ids[i:end], false).Return(all[i:end], nil).Once()
	}

	require.NoError(t, svc.IndexObjects(context.Background(), search.MappingProfile, ids, false))
	profiles.AssertNumberOfCalls(t, "FindByIDs", 3)

	n, err := store.Count(context.Background(), "profiles")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestIndexObjects_PublicIndexUsesPublicScope(t *testing.T) {
	svc, store, profiles, _ := newTestService(config.SearchConfig{})
	p := directorytest.NewCompleteProfile("alice")
	p.Privacy.FullName = directory.PrivacyPublic
	p.IsPublic = true
	profiles.On("FindByIDs", mock.Anything, []uuid.UUID{p.ID}, true).Return([]*directory.Profile{p}, nil)

	require.NoError(t, svc.IndexObjects(context.Background(), search.MappingProfile, []uuid.UUID{p.ID}, true))

	doc, err := store.Get(context.Background(), "profiles_public", p.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Full alice", doc["full_name"])
	assert.NotContains(t, doc, "email")
	assert.NotContains(t, doc, "privacy_full_name")
}

func TestIndexObjects_Disabled(t *testing.T) {
	svc, _, profiles, _ := newTestService(config.SearchConfig{Disabled: true})
	require.NoError(t, svc.IndexObjects(context.Background(), search.MappingProfile, []uuid.UUID{uuid.New()}, false))
	require.NoError(t, svc.UnindexObjects(context.Background(), search.MappingProfile, []uuid.UUID{uuid.New()}, false))
	profiles.AssertNotCalled(t, "FindByIDs", mock.Anything, mock.Anything, mock.Anything)
}

func TestIndexObjects_LoadError(t *testing.T) {
	svc, _, profiles, _ := newTestService(config.SearchConfig{})
	dbErr := errors.New("db down")
	profiles.On("FindByIDs", mock.Anything, mock.Anything, false).Return(nil, dbErr)

	err := svc.IndexObjects(context.Background(), search.MappingProfile, []uuid.UUID{uuid.New()}, false)
	assert.ErrorIs(t, err, dbErr)
}

func TestIndexAndUnindexGroups(t *testing.T) {
	svc, store, _, groups := newTestService(config.SearchConfig{})
	g, _ := directory.NewGroup("Localization")
	g.MemberCount = 12
	groups.On("FindByIDs", mock.Anything, []uuid.UUID{g.ID}, false).Return([]*directory.Group{g}, nil)

	exec := svc.IndexExecutor()
	require.NoError(t, exec.Execute(context.Background(), NewIndexJob(search.MappingGroup, []uuid.UUID{g.ID}, false)))

	doc, err := store.Get(context.Background(), "groups", g.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Localization", doc["name"])
	assert.Equal(t, float64(12), doc["member_count"])

	require.NoError(t, svc.UnindexExecutor().Execute(context.Background(), NewUnindexJob(search.MappingGroup, []uuid.UUID{g.ID}, false)))
	_, err = store.Get(context.Background(), "groups", g.ID.String())
	assert.ErrorIs(t, err, search.ErrDocumentNotFound)
}

func TestExecutor_BadPayloadIsPermanent(t *testing.T) {
	svc, _, _, _ := newTestService(config.SearchConfig{})
	err := svc.IndexExecutor().Execute(context.Background(), scheduler.NewJob(JobKindIndex, 42))
	assert.True(t, scheduler.IsPermanent(err))
}

func TestProfileDocument(t *testing.T) {
	p := directorytest.NewCompleteProfile("alice")
	require.NoError(t, p.AddLanguage("de"))
	p.SetLocation(nil, nil, &directory.City{Name: "Berlin"})
	p.Privacy.GeoCity = directory.PrivacyPublic

	private := ProfileDocument(p, false)
	assert.Equal(t, "alice@example.com", private["email"])
	assert.Equal(t, int(directory.PrivacyMozillians), private["privacy_email"])
	assert.Equal(t, []string{"de"}, private["languages"])
	assert.Equal(t, "", private["country"])

	public := ProfileDocument(p, true)
	assert.Equal(t, "Berlin", public["city"])
	assert.NotContains(t, public, "email")
	assert.NotContains(t, public, "languages")
	assert.Equal(t, "alice", public["username"])
}
