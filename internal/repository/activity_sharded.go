package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
)

// DefaultActivityShards 默认分表数量
const DefaultActivityShards = 8

// ShardedActivityRepository 分表流水实现：按 entity_id 路由到 activity_logs_N
// 流水量远大于实体量，单表热点写入时切分最直接
type ShardedActivityRepository struct {
	db     *gorm.DB
	shards int
}

// NewShardedActivityRepository 创建分表流水仓储
func NewShardedActivityRepository(db *gorm.DB, shards int) (ActivityRepository, error) {
	if shards <= 0 {
		shards = DefaultActivityShards
	}
	if shards > 64 {
		return nil, fmt.Errorf("too many activity shards: %d", shards)
	}
	return &ShardedActivityRepository{db: db, shards: shards}, nil
}

// RouteByEntityID 根据实体ID路由到对应分表
// 实体ID是 uuid 字符串，取 FNV 哈希后对分表数取模
func (r *ShardedActivityRepository) RouteByEntityID(entityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	return int(h.Sum32() % uint32(r.shards))
}

// shardTableName 获取分表名称
func shardTableName(idx int) string {
	return fmt.Sprintf("activity_logs_%d", idx)
}

// Append 追加流水（精确路由）
func (r *ShardedActivityRepository) Append(ctx context.Context, log *model.ActivityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	tableName := shardTableName(r.RouteByEntityID(log.EntityID))
	return r.db.WithContext(ctx).Table(tableName).Create(log).Error
}

// ListByEntity 查询某实体最近的流水（精确路由到单个分表）
func (r *ShardedActivityRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*model.ActivityLog, error) {
	tableName := shardTableName(r.RouteByEntityID(entityID))
	var logs []*model.ActivityLog
	err := r.db.WithContext(ctx).
		Table(tableName).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
	return logs, nil
}

// CountByEntity 统计某实体的流水条数（精确路由）
func (r *ShardedActivityRepository) CountByEntity(ctx context.Context, entityType, entityID string) (int64, error) {
	tableName := shardTableName(r.RouteByEntityID(entityID))
	var count int64
	err := r.db.WithContext(ctx).
		Table(tableName).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Count(&count).Error
	return count, err
}

// Count 统计全部流水条数（需要扫描所有分表）
func (r *ShardedActivityRepository) Count(ctx context.Context) (int64, error) {
	var totalCount int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	errChan := make(chan error, r.shards)

	for idx := 0; idx < r.shards; idx++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			var count int64
			err := r.db.WithContext(ctx).
				Table(shardTableName(i)).
				Count(&count).Error
			if err != nil {
				errChan <- err
				return
			}

			mu.Lock()
			totalCount += count
			mu.Unlock()
		}(idx)
	}

	wg.Wait()
	close(errChan)

	if len(errChan) > 0 {
		return 0, <-errChan
	}

	return totalCount, nil
}

// InitSchema 初始化所有分表
func (r *ShardedActivityRepository) InitSchema() error {
	for idx := 0; idx < r.shards; idx++ {
		tableName := shardTableName(idx)
		if err := r.db.Table(tableName).AutoMigrate(&model.ActivityLog{}); err != nil {
			return fmt.Errorf("failed to migrate table %s: %w", tableName, err)
		}
	}
	return nil
}
