package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
)

func setupStats(t *testing.T) (*gorm.DB, StatsService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.UseCase{}, &model.Topic{}, &model.Reply{}, &model.EngagementRecord{},
	))
	svc := NewStatsService(db,
		repository.NewEngagementRepository(db),
		repository.NewCounterRepository(db),
		repository.NewForumRepository(db))
	return db, svc
}

func seedEngagements(t *testing.T, db *gorm.DB, entityType, entityID, kind string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := &model.EngagementRecord{
			ID:         uuid.New().String(),
			EntityType: entityType,
			EntityID:   entityID,
			UserID:     uuid.New().String(),
			Kind:       kind,
		}
		require.NoError(t, db.Create(rec).Error)
	}
}

func TestRecalculateEntityFixesDriftedCounters(t *testing.T) {
	db, svc := setupStats(t)
	ctx := context.Background()

	// 冗余计数与成员记录不一致（历史上的部分失败）
	require.NoError(t, db.Create(&model.UseCase{
		ID: "uc1", Title: "uc1", Views: 99, Likes: 0, Saves: 7, Comments: 2,
		PublishedAt: time.Now(),
	}).Error)
	seedEngagements(t, db, model.EntityUseCase, "uc1", model.KindView, 4)
	seedEngagements(t, db, model.EntityUseCase, "uc1", model.KindLike, 3)
	seedEngagements(t, db, model.EntityUseCase, "uc1", model.KindSave, 1)

	counts, err := svc.RecalculateEntity(ctx, model.EntityUseCase, "uc1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), counts.Views)
	assert.Equal(t, int64(3), counts.Likes)
	assert.Equal(t, int64(1), counts.Saves)
	// 用例的评论计数不由互动记录推导，保持原值
	assert.Equal(t, int64(2), counts.Comments)

	var uc model.UseCase
	require.NoError(t, db.First(&uc, "id = ?", "uc1").Error)
	assert.Equal(t, int64(4), uc.Views)
	assert.Equal(t, int64(3), uc.Likes)
	assert.Equal(t, int64(1), uc.Saves)
}

func TestRecalculateTopicCommentsFromReplies(t *testing.T) {
	db, svc := setupStats(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Topic{ID: "t1", Title: "t1", Replies: 0}).Error)
	require.NoError(t, db.Create([]*model.Reply{
		{ID: "r1", TopicID: "t1", AuthorID: "u1", Body: "a"},
		{ID: "r2", TopicID: "t1", AuthorID: "u2", Body: "b"},
	}).Error)

	counts, err := svc.RecalculateEntity(ctx, model.EntityTopic, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Comments)

	var topic model.Topic
	require.NoError(t, db.First(&topic, "id = ?", "t1").Error)
	assert.Equal(t, int64(2), topic.Replies)
}

func TestRecalculateAllWalksEveryEntity(t *testing.T) {
	db, svc := setupStats(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.UseCase{ID: "uc1", Title: "uc1", Likes: 42, PublishedAt: time.Now()}).Error)
	require.NoError(t, db.Create(&model.Topic{ID: "t1", Title: "t1", Views: 17}).Error)
	require.NoError(t, db.Create(&model.Reply{ID: "r1", TopicID: "t1", AuthorID: "u1", Body: "a", Likes: 9}).Error)
	seedEngagements(t, db, model.EntityUseCase, "uc1", model.KindLike, 2)

	total, err := svc.RecalculateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	var uc model.UseCase
	require.NoError(t, db.First(&uc, "id = ?", "uc1").Error)
	assert.Equal(t, int64(2), uc.Likes)

	var topic model.Topic
	require.NoError(t, db.First(&topic, "id = ?", "t1").Error)
	assert.Zero(t, topic.Views)

	var reply model.Reply
	require.NoError(t, db.First(&reply, "id = ?", "r1").Error)
	assert.Zero(t, reply.Likes)
}

func TestRecalculateEntityUnknownType(t *testing.T) {
	_, svc := setupStats(t)

	_, err := svc.RecalculateEntity(context.Background(), "widget", "x")
	assert.ErrorIs(t, err, repository.ErrUnknownEntityType)
}
