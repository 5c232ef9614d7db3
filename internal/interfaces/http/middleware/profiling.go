package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
)

// Profiling labels the profiling samples of a request with its method,
// route pattern, API version and resolved privacy level. It belongs after
// PrivacyResolver in the chain.
func Profiling() gin.HandlerFunc {
	return func(c *gin.Context) {
		telemetry.WithProfilingLabels(c.Request.Context(), profilingLabels(c), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func profilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	labels := map[string]string{
		telemetry.ProfilingLabelMethod:     c.Request.Method,
		telemetry.ProfilingLabelRoute:      route,
		telemetry.ProfilingLabelAPIVersion: apiVersion(route),
	}
	if level := GetPrivacyLevel(c); level.IsValid() {
		labels[telemetry.ProfilingLabelPrivacy] = level.Label()
	}
	return labels
}

// apiVersion returns "v2" for "/api/v2/users/:id/"
func apiVersion(route string) string {
	rest, ok := strings.CutPrefix(route, "/api/")
	if !ok {
		return ""
	}
	version, _, _ := strings.Cut(rest, "/")
	return version
}
