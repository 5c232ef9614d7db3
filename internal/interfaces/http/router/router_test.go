package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestVersion_MiddlewareOrder(t *testing.T) {
	engine := gin.New()
	var order []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			order = append(order, name)
			c.Next()
		}
	}

	NewVersion("v1", mark("auth"), mark("privacy")).Add(
		NewResource("/test").GET("/ping", func(c *gin.Context) {
			order = append(order, "handler")
			c.String(http.StatusOK, "pong")
		}),
	).Mount(engine)

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, []string{"auth", "privacy", "handler"}, order)

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodHead, "/api/v1/test/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v2/test/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/api/v1/test/ping").Code)
}

type okPinger struct{}

func (okPinger) Ping() error { return nil }

func TestAPIRegister(t *testing.T) {
	engine := gin.New()
	urls := appdir.NewURLBuilder("https://mozillians.test")
	deny := func(status int) gin.HandlerFunc {
		return func(c *gin.Context) { c.AbortWithStatus(status) }
	}
	API{
		Profiles:     handler.NewProfileHandler(nil, nil, urls),
		Groups:       handler.NewGroupHandler(nil, nil, urls),
		Skills:       handler.NewSkillHandler(nil, nil, urls),
		System:       handler.NewSystemHandler("mozillians", "test", okPinger{}),
		Metrics:      http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		V1Middleware: []gin.HandlerFunc{deny(http.StatusUnauthorized)},
		V2Middleware: []gin.HandlerFunc{deny(http.StatusTeapot)},
	}.Register(engine)

	paths := map[string]bool{}
	for _, route := range engine.Routes() {
		if route.Method == http.MethodGet {
			paths[route.Path] = true
		}
	}
	for _, p := range []string{
		"/health", "/system/info", "/metrics",
		"/api/v1/users/", "/api/v1/users/:id/", "/api/v1/groups/", "/api/v1/skills/",
		"/api/v2/users/", "/api/v2/users/:id/", "/api/v2/lookup-user/",
		"/api/v2/groups/", "/api/v2/groups/:id/", "/api/v2/skills/", "/api/v2/languages/",
	} {
		assert.True(t, paths[p], p)
	}

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	w := serve(engine, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# metrics", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/users/").Code)
	assert.Equal(t, http.StatusTeapot, serve(engine, http.MethodGet, "/api/v2/users/").Code)
}
