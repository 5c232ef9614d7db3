package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSkills(t *testing.T) {
	sk := &directory.Skill{ID: uuid.New(), Name: "go", Visible: true}

	t.Run("v2", func(t *testing.T) {
		f := newFixture(directory.PrivacyPublic)
		f.skills.On("FindVisible", anyCtx, shared.Page{Offset: 10, Limit: 10}).Return([]*directory.Skill{sk}, int64(11), nil)

		w, body := f.get(t, "/api/v2/skills/?page=2&page_size=10")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, body["next"])
		assert.Equal(t, testSite+"/api/v2/skills/?page_size=10", body["previous"])
		assert.Equal(t, []any{map[string]any{
			"url":  testSite + "/api/v2/skills/" + sk.ID.String() + "/",
			"name": "go",
		}}, body["results"])
	})

	t.Run("v1", func(t *testing.T) {
		f := newFixture(directory.PrivacyMozillians)
		f.skills.On("FindVisible", anyCtx, shared.Page{Limit: 5}).Return([]*directory.Skill{sk}, int64(11), nil)

		w, body := f.get(t, "/api/v1/skills/?limit=5")
		require.Equal(t, http.StatusOK, w.Code)
		meta := body["meta"].(map[string]any)
		assert.Equal(t, "/api/v1/skills/?limit=5&offset=5", meta["next"])
		obj := body["objects"].([]any)[0].(map[string]any)
		assert.Equal(t, sk.ID.String(), obj["id"])
		assert.Equal(t, testSite+"/api/v1/skills/"+sk.ID.String()+"/", obj["resource_uri"])
	})
}

func TestListLanguages(t *testing.T) {
	f := newFixture(directory.PrivacyPublic)
	f.profiles.On("LanguageCodes", anyCtx, shared.Page{Limit: 20}).Return([]string{"de", "fr"}, int64(2), nil)

	w, body := f.get(t, "/api/v2/languages/")
	require.Equal(t, http.StatusOK, w.Code)
	results := body["results"].([]any)
	require.Len(t, results, 2)
	de := results[0].(map[string]any)
	assert.Equal(t, "de", de["code"])
	assert.Equal(t, "German", de["english"])
	assert.Equal(t, "Deutsch", de["native"])
}
