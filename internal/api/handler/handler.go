package handler

import (
	"github.com/d60-Lab/sme-community/config"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/internal/service"
)

// Handler 聚合各 HTTP 处理器依赖
type Handler struct {
	cfg          *config.Config
	engageSvc    service.EngagementService
	discoverySvc service.DiscoveryService
	statsSvc     service.StatsService
	publisher    *service.Publisher
	usecaseRepo  repository.UseCaseRepository
	forumRepo    repository.ForumRepository
	bookmarkRepo repository.BookmarkRepository
	notifyRepo   repository.NotificationRepository
	userRepo     repository.UserRepository
}

func New(
	cfg *config.Config,
	engageSvc service.EngagementService,
	discoverySvc service.DiscoveryService,
	statsSvc service.StatsService,
	publisher *service.Publisher,
	usecaseRepo repository.UseCaseRepository,
	forumRepo repository.ForumRepository,
	bookmarkRepo repository.BookmarkRepository,
	notifyRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
) *Handler {
	return &Handler{
		cfg:          cfg,
		engageSvc:    engageSvc,
		discoverySvc: discoverySvc,
		statsSvc:     statsSvc,
		publisher:    publisher,
		usecaseRepo:  usecaseRepo,
		forumRepo:    forumRepo,
		bookmarkRepo: bookmarkRepo,
		notifyRepo:   notifyRepo,
		userRepo:     userRepo,
	}
}
