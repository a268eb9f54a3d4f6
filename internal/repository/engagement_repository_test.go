package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/sme-community/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.UseCase{}, &model.Topic{}, &model.Reply{}, &model.EngagementRecord{},
	))
	return db
}

func TestEngagementCreateIsIdempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	rec := &model.EngagementRecord{
		EntityType: model.EntityUseCase, EntityID: "uc1", UserID: "u1", Kind: model.KindLike,
	}
	created, err := repo.Create(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)

	// 唯一键冲突不报错，返回未插入
	dup := &model.EngagementRecord{
		EntityType: model.EntityUseCase, EntityID: "uc1", UserID: "u1", Kind: model.KindLike,
	}
	created, err = repo.Create(ctx, dup)
	require.NoError(t, err)
	assert.False(t, created)

	n, err := repo.CountByKind(ctx, model.EntityUseCase, "uc1", model.KindLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestEngagementDeleteReportsWhetherRemoved(t *testing.T) {
	db := setupDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.EngagementRecord{
		EntityType: model.EntityTopic, EntityID: "t1", UserID: "u1", Kind: model.KindSave,
	})
	require.NoError(t, err)

	removed, err := repo.Delete(ctx, model.EntityTopic, "t1", "u1", model.KindSave)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, model.EntityTopic, "t1", "u1", model.KindSave)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestEngagementRefreshViewedAt(t *testing.T) {
	db := setupDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	rec := &model.EngagementRecord{
		EntityType: model.EntityTopic, EntityID: "t1", UserID: "u1", Kind: model.KindView,
	}
	_, err := repo.Create(ctx, rec)
	require.NoError(t, err)

	later := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	require.NoError(t, repo.RefreshViewedAt(ctx, rec.ID, later))

	got, err := repo.Get(ctx, model.EntityTopic, "t1", "u1", model.KindView)
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.LastViewedAt, time.Second)
}

func TestCounterIncrementDecrementMapping(t *testing.T) {
	db := setupDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Topic{ID: "t1", Title: "t"}).Error)
	require.NoError(t, repo.Increment(ctx, model.EntityTopic, "t1", model.KindLike))
	require.NoError(t, repo.Increment(ctx, model.EntityTopic, "t1", model.KindView))
	// topic 的评论计数落在 replies 列
	require.NoError(t, repo.Increment(ctx, model.EntityTopic, "t1", "comment"))

	counts, err := repo.GetCounts(ctx, model.EntityTopic, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Likes)
	assert.Equal(t, int64(1), counts.Views)
	assert.Equal(t, int64(1), counts.Comments)

	var topic model.Topic
	require.NoError(t, db.First(&topic, "id = ?", "t1").Error)
	assert.Equal(t, int64(1), topic.Replies)
}

func TestCounterDecrementClampsAtZero(t *testing.T) {
	db := setupDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.UseCase{ID: "uc1", Title: "uc", PublishedAt: time.Now()}).Error)
	require.NoError(t, repo.Decrement(ctx, model.EntityUseCase, "uc1", model.KindLike))

	counts, err := repo.GetCounts(ctx, model.EntityUseCase, "uc1")
	require.NoError(t, err)
	assert.Zero(t, counts.Likes)
}

func TestCounterReplyHasNoCommentColumn(t *testing.T) {
	db := setupDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&model.Reply{ID: "r1", TopicID: "t1", AuthorID: "u1", Likes: 2}).Error)

	counts, err := repo.GetCounts(ctx, model.EntityReply, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Likes)
	assert.Zero(t, counts.Comments)

	err = repo.Increment(ctx, model.EntityReply, "r1", "comment")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestCounterUnknownEntityAndKind(t *testing.T) {
	db := setupDB(t)
	repo := NewCounterRepository(db)
	ctx := context.Background()

	err := repo.Increment(ctx, "widget", "x", model.KindLike)
	assert.ErrorIs(t, err, ErrUnknownEntityType)

	err = repo.Increment(ctx, model.EntityTopic, "t1", "share")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestShardedActivityRouting(t *testing.T) {
	db := setupDB(t)
	repo, err := NewShardedActivityRepository(db, 4)
	require.NoError(t, err)
	require.NoError(t, repo.InitSchema())
	sharded := repo.(*ShardedActivityRepository)
	ctx := context.Background()

	// 路由是确定性的，且分布在 [0, shards)
	for i := 0; i < 32; i++ {
		id := fmt.Sprintf("entity-%d", i)
		idx := sharded.RouteByEntityID(id)
		assert.Equal(t, idx, sharded.RouteByEntityID(id))
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)
	}

	for i := 0; i < 20; i++ {
		err := repo.Append(ctx, &model.ActivityLog{
			EntityType: model.EntityUseCase,
			EntityID:   fmt.Sprintf("entity-%d", i%5),
			UserID:     fmt.Sprintf("user-%d", i),
			Action:     "view",
		})
		require.NoError(t, err)
	}

	// 精确路由的按实体统计
	n, err := repo.CountByEntity(ctx, model.EntityUseCase, "entity-0")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	// 全量统计需要扫全部分表
	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(20), total)

	logs, err := repo.ListByEntity(ctx, model.EntityUseCase, "entity-1", 10)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}
