package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
)

type ForumRepository interface {
	CreateTopic(ctx context.Context, t *model.Topic) error
	GetTopic(ctx context.Context, id string) (*model.Topic, error)
	ListTopicsSince(ctx context.Context, since time.Time, limit int) ([]*model.Topic, error)
	// CreateReply 同一事务内落回帖并递增主题回帖计数
	CreateReply(ctx context.Context, reply *model.Reply) error
	GetReply(ctx context.Context, id string) (*model.Reply, error)
	ListReplies(ctx context.Context, topicID string, offset, limit int) ([]*model.Reply, error)
	WithTx(tx *gorm.DB) ForumRepository
}

type forumRepository struct {
	db *gorm.DB
}

func NewForumRepository(db *gorm.DB) ForumRepository { return &forumRepository{db: db} }

func (r *forumRepository) WithTx(tx *gorm.DB) ForumRepository { return &forumRepository{db: tx} }

func (r *forumRepository) CreateTopic(ctx context.Context, t *model.Topic) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *forumRepository) GetTopic(ctx context.Context, id string) (*model.Topic, error) {
	var t model.Topic
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *forumRepository) ListTopicsSince(ctx context.Context, since time.Time, limit int) ([]*model.Topic, error) {
	var res []*model.Topic
	q := r.db.WithContext(ctx).Model(&model.Topic{})
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&res).Error
	return res, err
}

func (r *forumRepository) CreateReply(ctx context.Context, reply *model.Reply) error {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}
		return tx.Model(&model.Topic{}).
			Where("id = ?", reply.TopicID).
			Update("replies", gorm.Expr("replies + 1")).Error
	})
}

func (r *forumRepository) GetReply(ctx context.Context, id string) (*model.Reply, error) {
	var rep model.Reply
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *forumRepository) ListReplies(ctx context.Context, topicID string, offset, limit int) ([]*model.Reply, error) {
	var res []*model.Reply
	err := r.db.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&res).Error
	return res, err
}
