package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
)

func setupPublisher(t *testing.T) (*gorm.DB, *Publisher) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.UseCase{}, &model.Topic{}, &model.NotificationOutbox{},
	))
	p := NewPublisher(db,
		repository.NewUseCaseRepository(db),
		repository.NewForumRepository(db),
		repository.NewNotificationRepository(db))
	return db, p
}

func TestPublishUseCaseWritesOutboxInSameTx(t *testing.T) {
	db, p := setupPublisher(t)
	ctx := context.Background()

	id, err := p.PublishUseCase(ctx, &model.UseCase{
		AuthorID: "u1", Title: "Edge QC rollout", Category: "quality-inspection",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var uc model.UseCase
	require.NoError(t, db.First(&uc, "id = ?", id).Error)
	assert.False(t, uc.PublishedAt.IsZero())

	var ob model.NotificationOutbox
	require.NoError(t, db.First(&ob, "entity_id = ?", id).Error)
	assert.Equal(t, model.EntityUseCase, ob.EntityType)
	assert.Equal(t, "published", ob.Event)
	assert.Equal(t, "pending", ob.Status)
	assert.Equal(t, "u1", ob.AuthorID)
}

func TestPublishTopicWritesOutboxInSameTx(t *testing.T) {
	db, p := setupPublisher(t)
	ctx := context.Background()

	id, err := p.PublishTopic(ctx, &model.Topic{
		AuthorID: "u1", Title: "PLC vendor experiences", Body: "anyone running S7?",
	})
	require.NoError(t, err)

	var n int64
	require.NoError(t, db.Model(&model.NotificationOutbox{}).
		Where("entity_id = ? AND status = ?", id, "pending").Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPublishUseCaseRollsBackOnOutboxFailure(t *testing.T) {
	db, p := setupPublisher(t)
	ctx := context.Background()

	// outbox 写入失败时内容主体一并回滚
	require.NoError(t, db.Exec("DROP TABLE notification_outbox").Error)
	_, err := p.PublishUseCase(ctx, &model.UseCase{AuthorID: "u1", Title: "orphan"})
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&model.UseCase{}).Count(&n).Error)
	assert.Zero(t, n)
}
