// Package handler holds the HTTP handlers of the directory API.
package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/domain/shared"
	"github.com/mozillians/backend/internal/infrastructure/logger"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
	"github.com/mozillians/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Query parameters every endpoint tolerates
var commonParams = []string{middleware.APIKeyParam, "format"}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Error sends an error response with the given status
func (h *BaseHandler) Error(c *gin.Context, status int, code, detail string) {
	c.JSON(status, dto.NewErrorResponse(code, detail, middleware.GetRequestID(c)))
}

// NotFound sends a 404 response
func (h *BaseHandler) NotFound(c *gin.Context) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Not found.")
}

// HandleError converts domain errors to HTTP responses. Anything else is
// logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, domainErr.Message)
		return
	}

	logger.GetGinLogger(c).Error("Request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindQuery rejects unknown query parameters and binds the rest into dst.
// It writes the error response itself and reports whether to continue.
func (h *BaseHandler) bindQuery(c *gin.Context, dst any, allowed ...[]string) bool {
	if err := appdir.CheckParams(c.Request.URL.Query(), append(allowed, commonParams)...); err != nil {
		h.HandleError(c, err)
		return false
	}
	if dst == nil {
		return true
	}
	if err := c.ShouldBindQuery(dst); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// linkQuery is the query string repeated in pagination links. Credentials
// are never echoed back.
func linkQuery(c *gin.Context) url.Values {
	q := c.Request.URL.Query()
	q.Del(middleware.APIKeyParam)
	return q
}
