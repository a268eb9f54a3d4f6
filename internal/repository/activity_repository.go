package repository

import (
	"context"

	"github.com/d60-Lab/sme-community/internal/model"
)

// ActivityRepository 互动流水仓储接口
type ActivityRepository interface {
	// Append 追加一条行为流水
	Append(ctx context.Context, log *model.ActivityLog) error

	// ListByEntity 查询某实体最近的行为流水
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*model.ActivityLog, error)

	// CountByEntity 统计某实体的流水条数
	CountByEntity(ctx context.Context, entityType, entityID string) (int64, error)

	// Count 统计全部流水条数
	Count(ctx context.Context) (int64, error)

	// InitSchema 初始化表结构
	InitSchema() error
}
