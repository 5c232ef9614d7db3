package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/directory/directorytest"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProfileListV2_Pagination(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	alice := directorytest.NewCompleteProfile("alice")
	f.profiles.On("FindInScope", anyCtx, directory.ProfileScope{Level: directory.PrivacyMozillians},
		mock.MatchedBy(func(filter directory.ProfileFilter) bool {
			return filter.Page == shared.Page{Offset: 20, Limit: 20} && filter.SortBy == "username"
		})).
		Return([]*directory.Profile{alice}, int64(41), nil)

	w, body := f.get(t, "/api/v2/users/?page=2&api-key=secret")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, float64(41), body["count"])
	assert.Equal(t, testSite+"/api/v2/users/?page=3", body["next"])
	assert.Equal(t, testSite+"/api/v2/users/", body["previous"])
	results := body["results"].([]any)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]any{
		"username":   "alice",
		"_url":       testSite + "/api/v2/users/" + alice.ID.String() + "/",
		"is_vouched": false,
	}, results[0])
}

func TestProfileListV2_AnonymousSeesPublicOnly(t *testing.T) {
	f := newFixture(directory.PrivacyPublic)
	f.profiles.On("FindInScope", anyCtx, directory.ProfileScope{Level: directory.PrivacyPublic, PublicOnly: true}, mock.Anything).
		Return([]*directory.Profile{}, int64(0), nil)

	w, body := f.get(t, "/api/v2/users/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["next"])
	assert.Nil(t, body["previous"])
	assert.Empty(t, body["results"])
	f.profiles.AssertExpectations(t)
}

func TestProfileListV2_Filters(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	f.profiles.On("FindInScope", anyCtx, mock.Anything, mock.MatchedBy(func(filter directory.ProfileFilter) bool {
		return filter.City == "Berlin" && filter.IsVouched != nil && *filter.IsVouched &&
			filter.SortBy == "date_joined" && filter.SortOrder == "desc"
	})).Return([]*directory.Profile{}, int64(0), nil)

	w, _ := f.get(t, "/api/v2/users/?city=Berlin&is_vouched=true&ordering=-date_joined")
	assert.Equal(t, http.StatusOK, w.Code)
	f.profiles.AssertExpectations(t)
}

func TestProfileListV2_BadOrdering(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	w, body := f.get(t, "/api/v2/users/?ordering=email")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidParameter, body["code"])
	f.profiles.AssertNotCalled(t, "FindInScope", mock.Anything, mock.Anything, mock.Anything)
}

func TestProfileListV2_NoPrivacyLevel(t *testing.T) {
	f := newFixture(directory.PrivacyUnknown)
	w, body := f.get(t, "/api/v2/users/")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, body["code"])
}

func TestProfileGetV2(t *testing.T) {
	alice := directorytest.NewCompleteProfile("alice")

	t.Run("fields follow the requester level", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		f.profiles.On("FindInScopeByID", anyCtx, directory.ListScope(directory.PrivacyMozillians), alice.ID).Return(alice, nil)

		w, body := f.get(t, "/api/v2/users/"+alice.ID.String()+"/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "alice@example.com", body["email"])
		assert.NotContains(t, body, "tshirt")
	})

	t.Run("public requester", func(t *testing.T) {
		f := newFixture(directory.PrivacyPublic)
		f.profiles.On("FindInScopeByID", anyCtx, directory.ListScope(directory.PrivacyPublic), alice.ID).Return(alice, nil)

		w, body := f.get(t, "/api/v2/users/"+alice.ID.String()+"/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, body, "email")
	})

	t.Run("malformed id", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		w, body := f.get(t, "/api/v2/users/not-a-uuid/")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, body["code"])
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		id := uuid.New()
		f.profiles.On("FindInScopeByID", anyCtx, mock.Anything, id).Return(nil, shared.ErrNotFound)

		w, _ := f.get(t, "/api/v2/users/"+id.String()+"/")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("repository failure", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		id := uuid.New()
		f.profiles.On("FindInScopeByID", anyCtx, mock.Anything, id).Return(nil, errors.New("db down"))

		w, body := f.get(t, "/api/v2/users/"+id.String()+"/")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, body["code"])
	})
}

func TestProfileLookup(t *testing.T) {
	alice := directorytest.NewCompleteProfile("alice")

	t.Run("first parameter after credentials", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		criteria := directory.LookupCriteria{
			Field: directory.LookupEmail,
			Value: "alice@example.com",
			Level: directory.PrivacyMozillians,
		}
		f.profiles.On("FindMatching", anyCtx, directory.LookupScope(directory.PrivacyMozillians), criteria, 2).
			Return([]*directory.Profile{alice}, nil)

		w, body := f.get(t, "/api/v2/lookup-user/?api-key=secret&email=alice%40example.com&username=bob")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", body["username"])
	})

	t.Run("ambiguous", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		f.profiles.On("FindMatching", anyCtx, mock.Anything, mock.Anything, 2).
			Return([]*directory.Profile{alice, directorytest.NewCompleteProfile("alice2")}, nil)

		w, _ := f.get(t, "/api/v2/lookup-user/?username=alice")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unsupported key", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		w, _ := f.get(t, "/api/v2/lookup-user/?shoe_size=44")
		assert.Equal(t, http.StatusNotFound, w.Code)
		f.profiles.AssertNotCalled(t, "FindMatching", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLookupQuery(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"username=alice", "username=alice"},
		{"api-key=k&username=alice", "username=alice"},
		{"format=json&account_github=al&api-key=k&email=x", "account_github=al&email=x"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lookupQuery(tt.raw), tt.raw)
	}
}

func TestProfileListV1(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	alice := directorytest.NewCompleteProfile("alice")
	f.profiles.On("FindInScope", anyCtx, mock.Anything, mock.MatchedBy(func(filter directory.ProfileFilter) bool {
		return filter.Page == shared.Page{Offset: 10, Limit: 10}
	})).Return([]*directory.Profile{alice}, int64(25), nil)

	w, body := f.get(t, "/api/v1/users/?limit=10&offset=10")
	require.Equal(t, http.StatusOK, w.Code)

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(10), meta["limit"])
	assert.Equal(t, float64(10), meta["offset"])
	assert.Equal(t, float64(25), meta["total_count"])
	assert.Equal(t, "/api/v1/users/?limit=10&offset=20", meta["next"])
	assert.Equal(t, "/api/v1/users/?limit=10&offset=0", meta["previous"])

	objects := body["objects"].([]any)
	require.Len(t, objects, 1)
	obj := objects[0].(map[string]any)
	assert.Equal(t, alice.ID.String(), obj["id"])
	assert.Equal(t, "alice@example.com", obj["email"])
}

func TestProfileListV1_RejectsPageNumbers(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	w, body := f.get(t, "/api/v1/users/?page=2")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidParameter, body["code"])
}

func TestProfileGetV1(t *testing.T) {
	f := newFixture(directory.PrivacyPublic)
	alice := directorytest.NewCompleteProfile("alice")
	f.profiles.On("FindInScopeByID", anyCtx, mock.Anything, alice.ID).Return(alice, nil)

	w, body := f.get(t, "/api/v1/users/"+alice.ID.String()+"/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "email")
}
