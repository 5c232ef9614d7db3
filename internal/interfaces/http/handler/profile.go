package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
	"github.com/mozillians/backend/internal/interfaces/http/middleware"
)

// ProfileHandler serves profile lists, details and lookups
type ProfileHandler struct {
	BaseHandler
	read *appdir.ReadModel
	ser  *appdir.Serializer
	urls appdir.URLBuilder
}

// NewProfileHandler creates a ProfileHandler
func NewProfileHandler(read *appdir.ReadModel, ser *appdir.Serializer, urls appdir.URLBuilder) *ProfileHandler {
	return &ProfileHandler{read: read, ser: ser, urls: urls}
}

func (h *ProfileHandler) listQuery(c *gin.Context, pageParams []string) (appdir.ProfileListQuery, bool) {
	var q appdir.ProfileListQuery
	if !h.bindQuery(c, &q, pageParams, appdir.ProfileListParams, appdir.OrderingParam) {
		return q, false
	}
	return q, true
}

// ListV2 lists the profiles visible to the requester
//
// @ID           listUsersV2
// @Summary      List profiles
// @Description  Lists the vouched profiles visible at the requester's privacy level, paged by number
// @Tags         users
// @Produce      json
// @Param        page           query int    false "Page number"
// @Param        page_size      query int    false "Page size"
// @Param        ordering       query string false "Sort key, prefix with - for descending"
// @Param        is_vouched     query bool   false "Vouched state"
// @Param        vouched_by     query string false "Voucher profile id"
// @Param        city           query string false "City name"
// @Param        region         query string false "Region name"
// @Param        country        query string false "Country name"
// @Param        country_code   query string false "ISO country code"
// @Param        timezone       query string false "Time zone"
// @Param        tshirt         query int    false "T-shirt size"
// @Success      200 {object} dto.V2List
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/users/ [get]
func (h *ProfileHandler) ListV2(c *gin.Context) {
	q, ok := h.listQuery(c, appdir.PageParamsV2)
	if !ok {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.read.ListProfiles(c.Request.Context(), middleware.GetPrivacyLevel(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, p := range result.Items {
		docs = append(docs, h.ser.ProfileSummary(p))
	}
	c.JSON(http.StatusOK, dto.NewV2List(docs, result.Total, result.Page, result.TotalPages,
		h.urls.Collection(appdir.APIv2, "users", nil), linkQuery(c)))
}

// GetV2 returns the detailed profile document
//
// @ID           getUserV2
// @Summary      Get profile
// @Description  Returns the detailed profile document with fields above the requester's privacy level removed
// @Tags         users
// @Produce      json
// @Param        id path string true "Profile id"
// @Success      200 {object} map[string]any
// @Failure      404 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/users/{id}/ [get]
func (h *ProfileHandler) GetV2(c *gin.Context) {
	if !h.bindQuery(c, nil) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return
	}
	level := middleware.GetPrivacyLevel(c)
	p, err := h.read.GetProfile(c.Request.Context(), level, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.ser.ProfileDetail(c.Request.Context(), p, level)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Lookup resolves one profile by the first query parameter
//
// @ID           lookupUserV2
// @Summary      Look up a profile
// @Description  Resolves exactly one profile by the first query parameter, a profile field or an account_<type> identity
// @Tags         users
// @Produce      json
// @Param        username query string false "Username"
// @Param        email    query string false "Email address"
// @Success      200 {object} map[string]any
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/lookup-user/ [get]
func (h *ProfileHandler) Lookup(c *gin.Context) {
	level := middleware.GetPrivacyLevel(c)
	p, err := h.read.Lookup(c.Request.Context(), level, lookupQuery(c.Request.URL.RawQuery))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.ser.ProfileDetail(c.Request.Context(), p, level)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// lookupQuery drops the tolerated parameters from a raw query so the
// first remaining pair is the lookup key. Pair order is preserved.
func lookupQuery(raw string) string {
	pairs := strings.Split(raw, "&")
	kept := pairs[:0]
	for _, pair := range pairs {
		key, _, _ := strings.Cut(pair, "=")
		if key == middleware.APIKeyParam || key == "format" {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}

// ListV1 lists profiles in the legacy envelope
//
// @ID           listUsersV1
// @Summary      List profiles (legacy)
// @Tags         users
// @Produce      json
// @Param        limit    query int    false "Page size"
// @Param        offset   query int    false "Offset"
// @Param        ordering query string false "Sort key, prefix with - for descending"
// @Success      200 {object} dto.V1List
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v1/users/ [get]
func (h *ProfileHandler) ListV1(c *gin.Context) {
	q, ok := h.listQuery(c, appdir.PageParamsV1)
	if !ok {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	level := middleware.GetPrivacyLevel(c)
	result, err := h.read.ListProfiles(c.Request.Context(), level, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, p := range result.Items {
		doc, err := h.ser.ProfileV1(c.Request.Context(), p, level)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		docs = append(docs, doc)
	}
	c.JSON(http.StatusOK, dto.NewV1List(docs, result.Total, filter.Page.Limit, filter.Page.Offset,
		c.Request.URL.Path, linkQuery(c)))
}

// GetV1 returns the legacy profile object
//
// @ID           getUserV1
// @Summary      Get profile (legacy)
// @Tags         users
// @Produce      json
// @Param        id path string true "Profile id"
// @Success      200 {object} map[string]any
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Failure      404 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v1/users/{id}/ [get]
func (h *ProfileHandler) GetV1(c *gin.Context) {
	if !h.bindQuery(c, nil) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return
	}
	level := middleware.GetPrivacyLevel(c)
	p, err := h.read.GetProfile(c.Request.Context(), level, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	doc, err := h.ser.ProfileV1(c.Request.Context(), p, level)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
