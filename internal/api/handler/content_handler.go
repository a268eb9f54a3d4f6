package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/api/middleware"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/ranking"
	"github.com/d60-Lab/sme-community/pkg/response"
)

type createUseCaseRequest struct {
	Title        string   `json:"title" binding:"required,max=200"`
	Summary      string   `json:"summary"`
	Category     string   `json:"category" binding:"required"`
	Industry     string   `json:"industry"`
	Technologies []string `json:"technologies"`
	Tags         []string `json:"tags"`
	ROIPercent   *float64 `json:"roi_percent"`
}

// CreateUseCase 发布案例（事务内同时写 outbox 发布事件）
// @Summary 发布案例
// @Tags 案例
// @Accept json
// @Produce json
// @Param request body createUseCaseRequest true "案例内容"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/usecases [post]
func (h *Handler) CreateUseCase(c *gin.Context) {
	var req createUseCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	uc := &model.UseCase{
		AuthorID:     middleware.CurrentUser(c),
		Title:        req.Title,
		Summary:      req.Summary,
		Category:     req.Category,
		Industry:     req.Industry,
		Technologies: ranking.JoinTechnologies(req.Technologies),
		Tags:         ranking.JoinTechnologies(req.Tags),
		ROIPercent:   req.ROIPercent,
	}
	if u, err := h.userRepo.GetByID(c.Request.Context(), uc.AuthorID); err == nil {
		uc.OrgID = u.OrgID
	}
	id, err := h.publisher.PublishUseCase(c.Request.Context(), uc)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// GetUseCase 案例详情
// @Summary 案例详情
// @Tags 案例
// @Produce json
// @Param id path string true "案例ID"
// @Success 200 {object} response.Response{data=model.UseCase}
// @Failure 404 {object} response.Response
// @Router /api/v1/usecases/{id} [get]
func (h *Handler) GetUseCase(c *gin.Context) {
	uc, err := h.usecaseRepo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "use case not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, uc)
}

// ListUseCases 案例列表
// @Summary 案例列表
// @Tags 案例
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/usecases [get]
func (h *Handler) ListUseCases(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	list, err := h.usecaseRepo.List(c.Request.Context(), (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

type createTopicRequest struct {
	Title    string `json:"title" binding:"required,max=200"`
	Body     string `json:"body" binding:"required"`
	Category string `json:"category"`
}

// CreateTopic 发布论坛主题
// @Summary 发布主题
// @Tags 论坛
// @Accept json
// @Produce json
// @Param request body createTopicRequest true "主题内容"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/forum/topics [post]
func (h *Handler) CreateTopic(c *gin.Context) {
	var req createTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	id, err := h.publisher.PublishTopic(c.Request.Context(), &model.Topic{
		AuthorID: middleware.CurrentUser(c),
		Title:    req.Title,
		Body:     req.Body,
		Category: req.Category,
	})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"id": id})
}

// GetTopic 主题详情
// @Summary 主题详情
// @Tags 论坛
// @Param id path string true "主题ID"
// @Success 200 {object} response.Response{data=model.Topic}
// @Failure 404 {object} response.Response
// @Router /api/v1/forum/topics/{id} [get]
func (h *Handler) GetTopic(c *gin.Context) {
	t, err := h.forumRepo.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "topic not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, t)
}

type createReplyRequest struct {
	Body string `json:"body" binding:"required"`
}

// CreateReply 回帖（事务内递增主题回帖计数）
// @Summary 回帖
// @Tags 论坛
// @Accept json
// @Produce json
// @Param id path string true "主题ID"
// @Param request body createReplyRequest true "回帖内容"
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/forum/topics/{id}/replies [post]
func (h *Handler) CreateReply(c *gin.Context) {
	var req createReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	topicID := c.Param("id")
	if _, err := h.forumRepo.GetTopic(c.Request.Context(), topicID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "topic not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	reply := &model.Reply{
		TopicID:  topicID,
		AuthorID: middleware.CurrentUser(c),
		Body:     req.Body,
	}
	if err := h.forumRepo.CreateReply(c.Request.Context(), reply); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"id": reply.ID})
}

// ListReplies 主题回帖列表
// @Summary 回帖列表
// @Tags 论坛
// @Param id path string true "主题ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Router /api/v1/forum/topics/{id}/replies [get]
func (h *Handler) ListReplies(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	list, err := h.forumRepo.ListReplies(c.Request.Context(), c.Param("id"), (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListBookmarks 当前用户的收藏列表（使用冗余快照，免 join）
// @Summary 我的收藏
// @Tags 收藏
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Router /api/v1/bookmarks [get]
func (h *Handler) ListBookmarks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	list, err := h.bookmarkRepo.ListByUser(c.Request.Context(), middleware.CurrentUser(c), (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}

// ListNotifications 当前用户的通知列表
// @Summary 我的通知
// @Tags 通知
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} response.Response{data=map[string]interface{}}
// @Failure 401 {object} response.Response
// @Router /api/v1/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	list, err := h.notifyRepo.ListByUser(c.Request.Context(), middleware.CurrentUser(c), (page-1)*pageSize, pageSize)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"page": page, "page_size": pageSize, "list": list})
}
