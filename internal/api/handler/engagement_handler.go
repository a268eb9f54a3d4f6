package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sme-community/internal/api/middleware"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/internal/service"
	"github.com/d60-Lab/sme-community/pkg/response"
)

func entityType(c *gin.Context) (string, bool) {
	t := c.Param("entity_type")
	switch t {
	case model.EntityUseCase, model.EntityTopic, model.EntityReply:
		return t, true
	default:
		response.BadRequest(c, "unknown entity type: "+t)
		return "", false
	}
}

func (h *Handler) writeToggleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEntityNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrAnonymous):
		response.Unauthorized(c, err.Error())
	case errors.Is(err, repository.ErrUnknownEntityType), errors.Is(err, repository.ErrUnknownKind):
		response.BadRequest(c, err.Error())
	default:
		response.InternalError(c, err)
	}
}

// ToggleLike 点赞/取消点赞
// @Summary 点赞 toggle
// @Tags 互动
// @Produce json
// @Param entity_type path string true "实体类型" Enums(usecase, topic, reply)
// @Param id path string true "实体ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/{entity_type}/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	et, ok := entityType(c)
	if !ok {
		return
	}
	res, err := h.engageSvc.ToggleLike(c.Request.Context(), et, c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		h.writeToggleError(c, err)
		return
	}
	response.Success(c, gin.H{"liked": res.Active, "likes": res.Count})
}

// ToggleSave 收藏/取消收藏
// @Summary 收藏 toggle
// @Tags 互动
// @Produce json
// @Param entity_type path string true "实体类型" Enums(usecase, topic, reply)
// @Param id path string true "实体ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/{entity_type}/{id}/save [post]
func (h *Handler) ToggleSave(c *gin.Context) {
	et, ok := entityType(c)
	if !ok {
		return
	}
	res, err := h.engageSvc.ToggleSave(c.Request.Context(), et, c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		h.writeToggleError(c, err)
		return
	}
	response.Success(c, gin.H{"saved": res.Active, "saves": res.Count})
}

// RecordView 上报浏览；匿名请求不计数但不报错
// @Summary 浏览上报
// @Tags 互动
// @Produce json
// @Param entity_type path string true "实体类型" Enums(usecase, topic, reply)
// @Param id path string true "实体ID"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 404 {object} response.Response
// @Router /api/v1/{entity_type}/{id}/view [post]
func (h *Handler) RecordView(c *gin.Context) {
	et, ok := entityType(c)
	if !ok {
		return
	}
	res, err := h.engageSvc.RecordView(c.Request.Context(), et, c.Param("id"), middleware.CurrentUser(c))
	if err != nil {
		h.writeToggleError(c, err)
		return
	}
	response.Success(c, gin.H{"counted": res.Counted})
}

// GetCounts 查询实体计数
// @Summary 查询计数
// @Tags 互动
// @Produce json
// @Param entity_type path string true "实体类型" Enums(usecase, topic, reply)
// @Param id path string true "实体ID"
// @Success 200 {object} response.Response{data=repository.Counts}
// @Failure 404 {object} response.Response
// @Router /api/v1/{entity_type}/{id}/counts [get]
func (h *Handler) GetCounts(c *gin.Context) {
	et, ok := entityType(c)
	if !ok {
		return
	}
	counts, err := h.engageSvc.GetCounts(c.Request.Context(), et, c.Param("id"))
	if err != nil {
		h.writeToggleError(c, err)
		return
	}
	response.Success(c, counts)
}
