package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
	"github.com/mozillians/backend/internal/interfaces/http/middleware"
)

// GroupHandler serves group lists and details
type GroupHandler struct {
	BaseHandler
	read *appdir.ReadModel
	ser  *appdir.Serializer
	urls appdir.URLBuilder
}

// NewGroupHandler creates a GroupHandler
func NewGroupHandler(read *appdir.ReadModel, ser *appdir.Serializer, urls appdir.URLBuilder) *GroupHandler {
	return &GroupHandler{read: read, ser: ser, urls: urls}
}

// ListV2 lists visible groups
//
// @ID           listGroupsV2
// @Summary      List groups
// @Tags         groups
// @Produce      json
// @Param        page                  query int    false "Page number"
// @Param        page_size             query int    false "Page size"
// @Param        ordering              query string false "Sort key, prefix with - for descending"
// @Param        name                  query string false "Group name"
// @Param        functional_area       query bool   false "Functional areas only"
// @Param        curator               query string false "Curator profile id"
// @Param        members_can_leave     query bool   false "Members can leave"
// @Param        accepting_new_members query string false "Membership policy" Enums(yes, by_request, no)
// @Success      200 {object} dto.V2List
// @Failure      400 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/groups/ [get]
func (h *GroupHandler) ListV2(c *gin.Context) {
	var q appdir.GroupListQuery
	if !h.bindQuery(c, &q, appdir.PageParamsV2, appdir.GroupListParams, appdir.OrderingParam) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.read.ListGroups(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, g := range result.Items {
		docs = append(docs, h.ser.GroupSummary(g))
	}
	c.JSON(http.StatusOK, dto.NewV2List(docs, result.Total, result.Page, result.TotalPages,
		h.urls.Collection(appdir.APIv2, "groups", nil), linkQuery(c)))
}

// GetV2 returns a group with the members visible to the requester
//
// @ID           getGroupV2
// @Summary      Get group
// @Description  Returns the group with its curator and the members visible to the requester
// @Tags         groups
// @Produce      json
// @Param        id path string true "Group id"
// @Success      200 {object} map[string]any
// @Failure      404 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/groups/{id}/ [get]
func (h *GroupHandler) GetV2(c *gin.Context) {
	if !h.bindQuery(c, nil) {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.NotFound(c)
		return
	}
	detail, err := h.read.GetGroupDetailed(c.Request.Context(), middleware.GetPrivacyLevel(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.ser.GroupDetail(detail.Group, detail.Members))
}

// ListV1 lists groups in the legacy envelope
//
// @ID           listGroupsV1
// @Summary      List groups (legacy)
// @Tags         groups
// @Produce      json
// @Param        limit  query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {object} dto.V1List
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v1/groups/ [get]
func (h *GroupHandler) ListV1(c *gin.Context) {
	var q appdir.GroupListQuery
	if !h.bindQuery(c, &q, appdir.PageParamsV1, appdir.GroupListParams, appdir.OrderingParam) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.read.ListGroups(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, g := range result.Items {
		docs = append(docs, h.ser.GroupV1(g))
	}
	c.JSON(http.StatusOK, dto.NewV1List(docs, result.Total, filter.Page.Limit, filter.Page.Offset,
		c.Request.URL.Path, linkQuery(c)))
}
