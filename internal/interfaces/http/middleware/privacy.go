package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/auth"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Credential context keys and request names
const (
	PrivacyLevelKey = "privacy_level"
	ConsumerKey     = "api_consumer"
	APIKeyParam     = "api-key"
	APIKeyHeader    = "X-API-KEY"
	AuthHeaderKey   = "Authorization"
	BearerPrefix    = "Bearer "
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Claims, error)
}

// PrivacyConfig configures the privacy level resolver
type PrivacyConfig struct {
	// Apps resolves API keys; nil disables key authentication
	Apps directory.APIAppRepository
	// Tokens validates bearer tokens; nil disables token authentication
	Tokens TokenValidator
	// Anonymous is the level of requests without a credential
	Anonymous directory.PrivacyLevel
	// RequireCredential rejects requests without a credential
	RequireCredential bool
	Logger            *zap.Logger
}

// PrivacyResolver derives the privacy level every read is scoped to.
// A bearer token wins over an API key; the api-key query parameter wins
// over the X-API-KEY header. Presented credentials that do not resolve
// are rejected rather than downgraded.
func PrivacyResolver(cfg PrivacyConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if !cfg.Anonymous.IsValid() {
		cfg.Anonymous = directory.PrivacyPublic
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if header := c.GetHeader(AuthHeaderKey); header != "" && cfg.Tokens != nil {
			token, ok := strings.CutPrefix(header, BearerPrefix)
			if !ok || token == "" {
				abortWithError(c, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
				return
			}
			claims, err := cfg.Tokens.Validate(ctx, token)
			if err != nil {
				cfg.Logger.Warn("Bearer token rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
				code := dto.ErrCodeTokenInvalid
				if errors.Is(err, auth.ErrExpiredToken) {
					code = dto.ErrCodeTokenExpired
				}
				abortWithError(c, code, tokenMessage(err))
				return
			}
			level, err := claims.Level()
			if err != nil {
				abortWithError(c, dto.ErrCodeTokenInvalid, "Invalid token")
				return
			}
			setPrivacy(c, level, claims.Subject)
			c.Next()
			return
		}

		key := c.Query(APIKeyParam)
		if key == "" {
			key = c.GetHeader(APIKeyHeader)
		}
		if key != "" && cfg.Apps != nil {
			app, err := cfg.Apps.FindByKeyDigest(ctx, directory.DigestAPIKey(key))
			switch {
			case errors.Is(err, shared.ErrNotFound), err == nil && !app.Enabled:
				abortWithError(c, dto.ErrCodeUnauthorized, "Invalid API key")
				return
			case err != nil:
				cfg.Logger.Error("Failed to resolve API key", zap.Error(err))
				abortWithError(c, dto.ErrCodeInternal, "An unexpected error occurred")
				return
			}
			setPrivacy(c, app.PrivacyLevel, app.Name)
			c.Next()
			return
		}

		if cfg.RequireCredential {
			abortWithError(c, dto.ErrCodeUnauthorized, "Authentication credentials were not provided")
			return
		}
		setPrivacy(c, cfg.Anonymous, "")
		c.Next()
	}
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return "Token is not yet valid"
	case errors.Is(err, auth.ErrTokenRevoked):
		return "Token has been revoked"
	}
	return "Invalid token"
}

func setPrivacy(c *gin.Context, level directory.PrivacyLevel, consumer string) {
	c.Set(PrivacyLevelKey, level)
	if consumer != "" {
		c.Set(ConsumerKey, consumer)
	}
}

// GetPrivacyLevel returns the level resolved for the request, or
// PrivacyUnknown when the resolver did not run
func GetPrivacyLevel(c *gin.Context) directory.PrivacyLevel {
	if v, ok := c.Get(PrivacyLevelKey); ok {
		if level, ok := v.(directory.PrivacyLevel); ok {
			return level
		}
	}
	return directory.PrivacyUnknown
}

// GetConsumer returns the name of the app or token subject of the request
func GetConsumer(c *gin.Context) string {
	return c.GetString(ConsumerKey)
}

func abortWithError(c *gin.Context, code, detail string) {
	status := dto.GetHTTPStatus(code)
	if status == 0 {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(code, detail, getRequestID(c)))
}
