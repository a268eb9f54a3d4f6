package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/sme-community/docs"

	"github.com/d60-Lab/sme-community/config"
	"github.com/d60-Lab/sme-community/internal/api/handler"
	"github.com/d60-Lab/sme-community/internal/api/middleware"
	"github.com/d60-Lab/sme-community/internal/ranking"
	"github.com/d60-Lab/sme-community/internal/repository"
)

// New 组装 gin 引擎：中间件链 + 路由表
func New(cfg *config.Config, h *handler.Handler, userRepo repository.UserRepository) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	registerValidations()

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLog())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(otelgin.Middleware("sme-community"))
	r.Use(middleware.RateLimit(cfg.Server.RateLimitQPS, cfg.Server.RateBurst))
	r.Use(middleware.Authenticate(cfg.JWT.Secret))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		v1.GET("/discover/trending", h.Trending)

		usecases := v1.Group("/usecases")
		{
			usecases.GET("", h.ListUseCases)
			usecases.GET("/:id", h.GetUseCase)
			usecases.GET("/:id/related", h.Related)
			usecases.POST("", middleware.RequireUser(), h.CreateUseCase)
		}

		forum := v1.Group("/forum")
		{
			forum.GET("/topics/:id", h.GetTopic)
			forum.GET("/topics/:id/replies", h.ListReplies)
			forum.POST("/topics", middleware.RequireUser(), h.CreateTopic)
			forum.POST("/topics/:id/replies", middleware.RequireUser(), h.CreateReply)
		}

		// 互动端点：view 允许匿名（不计数），like/save 必须登录
		v1.POST("/:entity_type/:id/view", h.RecordView)
		v1.GET("/:entity_type/:id/counts", h.GetCounts)
		v1.POST("/:entity_type/:id/like", middleware.RequireUser(), h.ToggleLike)
		v1.POST("/:entity_type/:id/save", middleware.RequireUser(), h.ToggleSave)

		v1.GET("/bookmarks", middleware.RequireUser(), h.ListBookmarks)
		v1.GET("/notifications", middleware.RequireUser(), h.ListNotifications)

		admin := v1.Group("/admin", middleware.RequireAdmin(userRepo))
		{
			admin.POST("/stats/recalculate", h.RecalculateStats)
			admin.POST("/stats/:entity_type/:id/recalculate", h.RecalculateEntityStats)
		}
	}

	return r
}

// registerValidations 注册业务字段校验
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("rankalgo", func(fl validator.FieldLevel) bool {
		_, err := ranking.ParseAlgorithm(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("rankwindow", func(fl validator.FieldLevel) bool {
		_, err := ranking.ParseWindow(fl.Field().String())
		return err == nil
	})
}
