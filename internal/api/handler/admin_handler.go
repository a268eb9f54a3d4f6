package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sme-community/internal/service"
	"github.com/d60-Lab/sme-community/pkg/response"
)

// RecalculateStats 全量对账：用互动记录重算冗余计数
// @Summary 重算统计
// @Tags 运维
// @Produce json
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 403 {object} response.Response
// @Router /api/v1/admin/stats/recalculate [post]
func (h *Handler) RecalculateStats(c *gin.Context) {
	n, err := h.statsSvc.RecalculateAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"entities": n})
}

// RecalculateEntityStats 重算单个实体
// @Summary 重算单实体统计
// @Tags 运维
// @Produce json
// @Param entity_type path string true "实体类型" Enums(usecase, topic, reply)
// @Param id path string true "实体ID"
// @Success 200 {object} response.Response{data=repository.Counts}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/admin/stats/{entity_type}/{id}/recalculate [post]
func (h *Handler) RecalculateEntityStats(c *gin.Context) {
	et, ok := entityType(c)
	if !ok {
		return
	}
	counts, err := h.statsSvc.RecalculateEntity(c.Request.Context(), et, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, counts)
}
