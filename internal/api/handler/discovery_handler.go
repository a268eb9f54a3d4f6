package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/sme-community/internal/ranking"
	"github.com/d60-Lab/sme-community/internal/service"
	"github.com/d60-Lab/sme-community/pkg/response"
)

// Trending 趋势榜
// @Summary 趋势内容
// @Tags 发现
// @Produce json
// @Param window query string false "时间窗口" Enums(day, week, month, quarter, year, all) default(week)
// @Param algorithm query string false "排序算法" Enums(hot, trending, popular, recent) default(trending)
// @Param limit query int false "条数" default(20)
// @Success 200 {object} response.Response{data=[]service.TrendingItem}
// @Failure 400 {object} response.Response
// @Router /api/v1/discover/trending [get]
func (h *Handler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	list, err := h.discoverySvc.GetTrending(c.Request.Context(),
		c.Query("window"), c.Query("algorithm"), limit)
	if err != nil {
		if errors.Is(err, ranking.ErrUnknownWindow) || errors.Is(err, ranking.ErrUnknownAlgorithm) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// Related 相关案例推荐
// @Summary 相关内容
// @Tags 发现
// @Produce json
// @Param id path string true "案例ID"
// @Param limit query int false "条数" default(5)
// @Param min_score query int false "相似度下限" default(1)
// @Success 200 {object} response.Response{data=[]service.RelatedItem}
// @Failure 404 {object} response.Response
// @Router /api/v1/usecases/{id}/related [get]
func (h *Handler) Related(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	minScore, _ := strconv.Atoi(c.DefaultQuery("min_score", "1"))
	list, err := h.discoverySvc.GetRelated(c.Request.Context(), c.Param("id"), limit, minScore)
	if err != nil {
		if errors.Is(err, service.ErrEntityNotFound) {
			response.NotFound(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}
