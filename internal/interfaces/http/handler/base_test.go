package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/directory/directorytest"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
	"github.com/mozillians/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSite = "https://mozillians.test"

var anyCtx = mock.Anything

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type stubPhotos struct{}

func (stubPhotos) Resolve(_ context.Context, photoKey, email string) (map[string]string, error) {
	return map[string]string{
		appdir.PhotoSmall:  "https://photos.test/150",
		appdir.PhotoMedium: "https://photos.test/300",
		appdir.PhotoLarge:  "https://photos.test/500",
	}, nil
}

type plainMarkup struct{}

func (plainMarkup) Render(src string) string { return src }

// fixture wires the handlers over mocked repositories
type fixture struct {
	profiles *directorytest.MockProfileRepository
	groups   *directorytest.MockGroupRepository
	skills   *directorytest.MockSkillRepository
	engine   *gin.Engine
}

func newFixture(level directory.PrivacyLevel) *fixture {
	f := &fixture{
		profiles: new(directorytest.MockProfileRepository),
		groups:   new(directorytest.MockGroupRepository),
		skills:   new(directorytest.MockSkillRepository),
	}
	read := appdir.NewReadModel(f.profiles, f.groups, f.skills, zap.NewNop())
	urls := appdir.NewURLBuilder(testSite)
	ser := appdir.NewSerializer(urls, stubPhotos{}, plainMarkup{})

	profiles := NewProfileHandler(read, ser, urls)
	groups := NewGroupHandler(read, ser, urls)
	skills := NewSkillHandler(read, ser, urls)

	f.engine = gin.New()
	f.engine.Use(func(c *gin.Context) {
		if level != directory.PrivacyUnknown {
			c.Set(middleware.PrivacyLevelKey, level)
		}
		c.Next()
	})
	v2 := f.engine.Group("/api/v2")
	v2.GET("/users/", profiles.ListV2)
	v2.GET("/users/:id/", profiles.GetV2)
	v2.GET("/lookup-user/", profiles.Lookup)
	v2.GET("/groups/", groups.ListV2)
	v2.GET("/groups/:id/", groups.GetV2)
	v2.GET("/skills/", skills.ListSkillsV2)
	v2.GET("/languages/", skills.ListLanguages)
	v1 := f.engine.Group("/api/v1")
	v1.GET("/users/", profiles.ListV1)
	v1.GET("/users/:id/", profiles.GetV1)
	v1.GET("/groups/", groups.ListV1)
	v1.GET("/skills/", skills.ListSkillsV1)
	return f
}

func (f *fixture) get(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped forbidden", errors.Join(errors.New("ctx"), shared.ErrForbidden), http.StatusForbidden, dto.ErrCodeForbidden},
		{"invalid parameter", shared.NewDomainError("INVALID_PARAMETER", "bad"), http.StatusBadRequest, dto.ErrCodeInvalidParameter},
		{"unmapped domain code", shared.NewDomainError("SOMETHING", "odd"), http.StatusInternalServerError, "SOMETHING"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set("request_id", "req-1")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			var resp dto.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, "req-1", resp.RequestID)
		})
	}
}

func TestBindQuery_RejectsUnknownParams(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	w, body := f.get(t, "/api/v2/users/?colour=blue")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidParameter, body["code"])
	assert.Contains(t, body["detail"], "colour")
}

func TestBindQuery_ToleratesCredentialAndFormat(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	f.skills.On("FindVisible", anyCtx, shared.Page{Limit: 20}).Return(nil, int64(0), nil)
	w, _ := f.get(t, "/api/v2/skills/?api-key=secret&format=json")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBindQuery_ValidationError(t *testing.T) {
	f := newFixture(directory.PrivacyMozillians)
	w, body := f.get(t, "/api/v2/users/?page_size=500")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, body["code"])
	errs, ok := body["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "page_size", errs[0].(map[string]any)["field"])
}
