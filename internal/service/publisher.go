package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
)

// Publisher 负责事务内写内容主体 + notification_outbox
type Publisher struct {
	db          *gorm.DB
	usecaseRepo repository.UseCaseRepository
	forumRepo   repository.ForumRepository
	notifyRepo  repository.NotificationRepository
}

func NewPublisher(db *gorm.DB, usecaseRepo repository.UseCaseRepository, forumRepo repository.ForumRepository, notifyRepo repository.NotificationRepository) *Publisher {
	return &Publisher{db: db, usecaseRepo: usecaseRepo, forumRepo: forumRepo, notifyRepo: notifyRepo}
}

// PublishUseCase 在一个事务内落地案例与发布事件
func (p *Publisher) PublishUseCase(ctx context.Context, uc *model.UseCase) (string, error) {
	if uc.ID == "" {
		uc.ID = uuid.New().String()
	}
	now := time.Now()
	if uc.PublishedAt.IsZero() {
		uc.PublishedAt = now
	}
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := p.usecaseRepo.WithTx(tx).Create(ctx, uc); err != nil {
			return err
		}
		return p.notifyRepo.WithTx(tx).CreateOutbox(ctx, &model.NotificationOutbox{
			EntityType: model.EntityUseCase,
			EntityID:   uc.ID,
			AuthorID:   uc.AuthorID,
			Event:      "published",
			CreatedAt:  now,
		})
	})
	if err != nil {
		return "", err
	}
	return uc.ID, nil
}

// PublishTopic 在一个事务内落地主题与发布事件
func (p *Publisher) PublishTopic(ctx context.Context, t *model.Topic) (string, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	now := time.Now()
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := p.forumRepo.WithTx(tx).CreateTopic(ctx, t); err != nil {
			return err
		}
		return p.notifyRepo.WithTx(tx).CreateOutbox(ctx, &model.NotificationOutbox{
			EntityType: model.EntityTopic,
			EntityID:   t.ID,
			AuthorID:   t.AuthorID,
			Event:      "published",
			CreatedAt:  now,
		})
	})
	if err != nil {
		return "", err
	}
	return t.ID, nil
}
