package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appdir "github.com/mozillians/backend/internal/application/directory"
	"github.com/mozillians/backend/internal/interfaces/http/dto"
)

// SkillHandler serves the skill and language vocabularies
type SkillHandler struct {
	BaseHandler
	read *appdir.ReadModel
	ser  *appdir.Serializer
	urls appdir.URLBuilder
}

// NewSkillHandler creates a SkillHandler
func NewSkillHandler(read *appdir.ReadModel, ser *appdir.Serializer, urls appdir.URLBuilder) *SkillHandler {
	return &SkillHandler{read: read, ser: ser, urls: urls}
}

// ListSkillsV2 lists visible skills
//
// @ID           listSkillsV2
// @Summary      List skills
// @Tags         skills
// @Produce      json
// @Param        page      query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.V2List
// @Failure      400 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/skills/ [get]
func (h *SkillHandler) ListSkillsV2(c *gin.Context) {
	var q appdir.PageQuery
	if !h.bindQuery(c, &q, appdir.PageParamsV2) {
		return
	}
	result, err := h.read.ListSkills(c.Request.Context(), q.ToPage())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, sk := range result.Items {
		docs = append(docs, h.ser.Skill(appdir.APIv2, sk))
	}
	c.JSON(http.StatusOK, dto.NewV2List(docs, result.Total, result.Page, result.TotalPages,
		h.urls.Collection(appdir.APIv2, "skills", nil), linkQuery(c)))
}

// ListSkillsV1 lists visible skills in the legacy envelope
//
// @ID           listSkillsV1
// @Summary      List skills (legacy)
// @Tags         skills
// @Produce      json
// @Param        limit  query int false "Page size"
// @Param        offset query int false "Offset"
// @Success      200 {object} dto.V1List
// @Failure      400 {object} dto.ErrorResponse
// @Failure      403 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v1/skills/ [get]
func (h *SkillHandler) ListSkillsV1(c *gin.Context) {
	var q appdir.PageQuery
	if !h.bindQuery(c, &q, appdir.PageParamsV1) {
		return
	}
	page := q.ToPage()
	result, err := h.read.ListSkills(c.Request.Context(), page)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, sk := range result.Items {
		docs = append(docs, h.ser.Skill(appdir.APIv1, sk))
	}
	c.JSON(http.StatusOK, dto.NewV1List(docs, result.Total, page.Limit, page.Offset,
		c.Request.URL.Path, linkQuery(c)))
}

// ListLanguages lists the languages spoken in the directory
//
// @ID           listLanguagesV2
// @Summary      List languages
// @Tags         skills
// @Produce      json
// @Param        page      query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.V2List
// @Failure      400 {object} dto.ErrorResponse
// @Security     ApiKeyHeader
// @Security     ApiKeyQuery
// @Security     BearerAuth
// @Router       /api/v2/languages/ [get]
func (h *SkillHandler) ListLanguages(c *gin.Context) {
	var q appdir.PageQuery
	if !h.bindQuery(c, &q, appdir.PageParamsV2) {
		return
	}
	result, err := h.read.ListLanguages(c.Request.Context(), q.ToPage())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	docs := make([]appdir.Document, 0, len(result.Items))
	for _, code := range result.Items {
		docs = append(docs, appdir.LanguageDocument(code))
	}
	c.JSON(http.StatusOK, dto.NewV2List(docs, result.Total, result.Page, result.TotalPages,
		h.urls.Collection(appdir.APIv2, "languages", nil), linkQuery(c)))
}
