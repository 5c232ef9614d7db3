package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows the burst then blocks", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute, 0)
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client"), "request %d should be allowed", i+1)
		}
		assert.False(t, limiter.Allow("client"))
	})

	t.Run("separate buckets per client", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute, 0)
		assert.True(t, limiter.Allow("a"))
		assert.False(t, limiter.Allow("a"))
		assert.True(t, limiter.Allow("b"))
	})

	t.Run("refills over time", func(t *testing.T) {
		limiter := NewRateLimiter(60, time.Minute, 1)
		now := time.Now()
		limiter.now = func() time.Time { return now }
		assert.True(t, limiter.Allow("c"))
		assert.False(t, limiter.Allow("c"))

		now = now.Add(time.Second)
		assert.True(t, limiter.Allow("c"))
	})

	t.Run("remaining", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Hour, 0)
		now := time.Now()
		limiter.now = func() time.Time { return now }
		assert.Equal(t, 5, limiter.Remaining("d"))
		limiter.Allow("d")
		limiter.Allow("d")
		assert.Equal(t, 3, limiter.Remaining("d"))
	})

	t.Run("sweep forgets idle clients", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute, 0)
		now := time.Now()
		limiter.now = func() time.Time { return now }
		limiter.Allow("old")
		now = now.Add(3 * time.Minute)
		limiter.Allow("new")

		assert.Equal(t, 1, limiter.Sweep())
		assert.Equal(t, 1, limiter.Len())
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(2, time.Hour, 0)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if c.Query("app") != "" {
			setPrivacy(c, 2, c.Query("app"))
		}
		c.Next()
	})
	router.Use(RateLimit(limiter))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	first := do("/test")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, do("/test").Code)

	blocked := do("/test")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Contains(t, blocked.Body.String(), "ERR_RATE_LIMITED")

	// consumers are limited independently of their IP
	assert.Equal(t, http.StatusOK, do("/test?app=phonebook").Code)
}
