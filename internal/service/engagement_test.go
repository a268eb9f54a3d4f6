package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/sme-community/internal/cache"
	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
)

type engagementFixture struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	svc      EngagementService
	engage   repository.EngagementRepository
	counters repository.CounterRepository
	books    repository.BookmarkRepository
	notify   repository.NotificationRepository
	notifier *MilestoneNotifier
}

func setupEngagement(t *testing.T) *engagementFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.UseCase{}, &model.Topic{}, &model.Reply{},
		&model.EngagementRecord{}, &model.Bookmark{},
		&model.Notification{}, &model.NotificationOutbox{},
	))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	engage := repository.NewEngagementRepository(db)
	counters := repository.NewCounterRepository(db)
	books := repository.NewBookmarkRepository(db)
	usecases := repository.NewUseCaseRepository(db)
	forum := repository.NewForumRepository(db)
	notify := repository.NewNotificationRepository(db)
	activity := repository.NewSingleTableActivityRepository(db)
	require.NoError(t, activity.InitSchema())

	notifier := NewMilestoneNotifier(notify, 100)
	stop := notifier.Start(1)
	t.Cleanup(func() { _ = stop(context.Background()) })

	gate := cache.NewViewGate(rdb, TopicViewWindow)
	svc := NewEngagementService(db, engage, counters, books, usecases, forum, activity, gate, notifier)
	return &engagementFixture{db: db, mr: mr, svc: svc, engage: engage, counters: counters, books: books, notify: notify, notifier: notifier}
}

func (f *engagementFixture) seedUseCase(t *testing.T, id string, likes int64) *model.UseCase {
	t.Helper()
	uc := &model.UseCase{
		ID: id, AuthorID: "author-1", Title: "Edge QC rollout", Category: "quality-inspection",
		Likes: likes, PublishedAt: time.Now(),
	}
	require.NoError(t, f.db.Create(uc).Error)
	return uc
}

func (f *engagementFixture) seedTopic(t *testing.T, id string) *model.Topic {
	t.Helper()
	topic := &model.Topic{ID: id, AuthorID: "author-1", Title: "PLC vendor experiences"}
	require.NoError(t, f.db.Create(topic).Error)
	return topic
}

func TestToggleLikeDoubleToggleIsIdempotent(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedUseCase(t, "uc1", 5)

	res, err := f.svc.ToggleLike(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, int64(6), res.Count)

	res, err = f.svc.ToggleLike(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Equal(t, int64(5), res.Count)

	// 记录也回到了不存在
	exists, err := f.engage.Exists(ctx, model.EntityUseCase, "uc1", "u1", model.KindLike)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestToggleLikeAnonymousFailsLoud(t *testing.T) {
	f := setupEngagement(t)
	f.seedUseCase(t, "uc1", 0)

	_, err := f.svc.ToggleLike(context.Background(), model.EntityUseCase, "uc1", "")
	assert.ErrorIs(t, err, ErrAnonymous)
}

func TestToggleLikeEntityNotFound(t *testing.T) {
	f := setupEngagement(t)

	_, err := f.svc.ToggleLike(context.Background(), model.EntityUseCase, "missing", "u1")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestCountersNeverNegative(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedUseCase(t, "uc1", 0)

	// 计数为 0 时直接减是 no-op
	require.NoError(t, f.counters.Decrement(ctx, model.EntityUseCase, "uc1", model.KindLike))
	counts, err := f.counters.GetCounts(ctx, model.EntityUseCase, "uc1")
	require.NoError(t, err)
	assert.Zero(t, counts.Likes)

	// 任意 toggle 序列之后计数非负
	for i := 0; i < 3; i++ {
		_, err := f.svc.ToggleLike(ctx, model.EntityUseCase, "uc1", "u1")
		require.NoError(t, err)
		counts, err = f.counters.GetCounts(ctx, model.EntityUseCase, "uc1")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, counts.Likes, int64(0))
	}
}

func TestToggleSaveDenormalizesBookmark(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedUseCase(t, "uc1", 0)

	res, err := f.svc.ToggleSave(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, int64(1), res.Count)

	list, err := f.books.ListByUser(ctx, "u1", 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Edge QC rollout", list[0].TargetTitle)
	assert.Equal(t, "quality-inspection", list[0].TargetCategory)

	// toggle off 撤掉收藏快照
	res, err = f.svc.ToggleSave(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Active)
	assert.Equal(t, int64(0), res.Count)

	list, err = f.books.ListByUser(ctx, "u1", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRecordViewUnboundedWindow(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedUseCase(t, "uc1", 0)

	res, err := f.svc.RecordView(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.True(t, res.Counted)

	res, err = f.svc.RecordView(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Counted)

	counts, err := f.counters.GetCounts(ctx, model.EntityUseCase, "uc1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts.Views)
}

func TestRecordViewTopicHourWindow(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedTopic(t, "t1")

	res, err := f.svc.RecordView(ctx, model.EntityTopic, "t1", "u1")
	require.NoError(t, err)
	assert.True(t, res.Counted)

	// 窗口内重复浏览不计数
	res, err = f.svc.RecordView(ctx, model.EntityTopic, "t1", "u1")
	require.NoError(t, err)
	assert.False(t, res.Counted)

	// 窗口过期后再次计数：redis key 过期 + DB 时间戳后移
	f.mr.FastForward(TopicViewWindow + time.Minute)
	stale := time.Now().Add(-(TopicViewWindow + time.Minute))
	require.NoError(t, f.db.Model(&model.EngagementRecord{}).
		Where("entity_type = ? AND entity_id = ? AND user_id = ? AND kind = ?",
			model.EntityTopic, "t1", "u1", model.KindView).
		Update("last_viewed_at", stale).Error)

	res, err = f.svc.RecordView(ctx, model.EntityTopic, "t1", "u1")
	require.NoError(t, err)
	assert.True(t, res.Counted)

	counts, err := f.counters.GetCounts(ctx, model.EntityTopic, "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts.Views)
}

func TestRecordViewAnonymousNotCounted(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedUseCase(t, "uc1", 0)

	res, err := f.svc.RecordView(ctx, model.EntityUseCase, "uc1", "")
	require.NoError(t, err)
	assert.False(t, res.Counted)

	counts, err := f.counters.GetCounts(ctx, model.EntityUseCase, "uc1")
	require.NoError(t, err)
	assert.Zero(t, counts.Views)
}

func TestLikeMilestoneNotifiesAuthor(t *testing.T) {
	f := setupEngagement(t)
	ctx := context.Background()
	f.seedUseCase(t, "uc1", 9)

	res, err := f.svc.ToggleLike(ctx, model.EntityUseCase, "uc1", "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), res.Count)

	assert.Eventually(t, func() bool {
		list, err := f.notify.ListByUser(ctx, "author-1", 0, 10)
		return err == nil && len(list) == 1 && list[0].Type == "milestone"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestGetCountsUnknownEntity(t *testing.T) {
	f := setupEngagement(t)

	_, err := f.svc.GetCounts(context.Background(), model.EntityUseCase, "missing")
	assert.ErrorIs(t, err, ErrEntityNotFound)

	_, err = f.svc.GetCounts(context.Background(), "widget", "x")
	assert.ErrorIs(t, err, repository.ErrUnknownEntityType)
}
