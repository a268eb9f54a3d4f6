package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
)

// DispatchWorker 从 notification_outbox 拉取发布事件并生成站内通知
// 投递对象为作者同组织成员（分页拉取）
type DispatchWorker struct {
	db           *gorm.DB
	userRepo     repository.UserRepository
	batchSize    int
	claimLimit   int
	pollInterval time.Duration
	workers      int
	metricsCh    chan time.Duration // outbox->processed latency
}

func NewDispatchWorker(db *gorm.DB, userRepo repository.UserRepository, workers, batchSize, claimLimit int, pollInterval time.Duration) *DispatchWorker {
	if workers <= 0 {
		workers = 2
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if claimLimit <= 0 {
		claimLimit = 64
	}
	if pollInterval <= 0 {
		pollInterval = 50 * time.Millisecond
	}
	return &DispatchWorker{db: db, userRepo: userRepo, workers: workers, batchSize: batchSize, claimLimit: claimLimit, pollInterval: pollInterval, metricsCh: make(chan time.Duration, 65536)}
}

func (w *DispatchWorker) Metrics() <-chan time.Duration { return w.metricsCh }

// Start 启动若干 worker 轮询处理 outbox；返回停止函数。
func (w *DispatchWorker) Start() func(context.Context) error {
	stop := make(chan struct{})
	for i := 0; i < w.workers; i++ {
		go w.loop(stop)
	}
	return func(ctx context.Context) error { close(stop); return nil }
}

func (w *DispatchWorker) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_ = w.processOnce(context.Background())
		}
	}
}

// processOnce: claim 一批 pending outbox 并投递
func (w *DispatchWorker) processOnce(ctx context.Context) error {
	// claim batch using SELECT ... FOR UPDATE SKIP LOCKED
	type ob struct {
		ID         string
		EntityType string
		EntityID   string
		AuthorID   string
		CreatedAt  time.Time
	}
	var batch []ob
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(`
            SELECT id, entity_type, entity_id, author_id, created_at
            FROM notification_outbox
            WHERE status = 'pending'
            ORDER BY created_at
            LIMIT ?
            FOR UPDATE SKIP LOCKED
        `, w.claimLimit).Scan(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		ids := make([]string, len(batch))
		for i, b := range batch {
			ids[i] = b.ID
		}
		return tx.Model(&model.NotificationOutbox{}).Where("id IN ?", ids).Update("status", "processing").Error
	})
	if err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	for _, b := range batch {
		author, err := w.userRepo.GetByID(ctx, b.AuthorID)
		var delivered int64
		if err == nil && author.OrgID != "" {
			delivered = w.deliverToOrg(ctx, author.OrgID, b.AuthorID, b.EntityType, b.EntityID)
		}
		now := time.Now()
		_ = w.db.WithContext(ctx).Model(&model.NotificationOutbox{}).
			Where("id = ?", b.ID).
			Updates(map[string]any{"status": "done", "processed_at": now, "delivered": delivered}).Error
		if !b.CreatedAt.IsZero() {
			select {
			case w.metricsCh <- time.Since(b.CreatedAt):
			default:
			}
		}
	}
	return nil
}

func (w *DispatchWorker) deliverToOrg(ctx context.Context, orgID, authorID, entityType, entityID string) int64 {
	offset := 0
	var total int64
	for {
		members, err := w.userRepo.ListByOrg(ctx, orgID, offset, w.batchSize)
		if err != nil || len(members) == 0 {
			break
		}
		records := make([]model.Notification, 0, len(members))
		now := time.Now()
		for _, m := range members {
			if m.ID == authorID {
				continue // 不通知作者本人
			}
			records = append(records, model.Notification{
				ID:         uuid.New().String(),
				UserID:     m.ID,
				Type:       "new_content",
				EntityType: entityType,
				EntityID:   entityID,
				CreatedAt:  now,
			})
		}
		if len(records) > 0 {
			_ = w.db.WithContext(ctx).Create(&records).Error
			total += int64(len(records))
		}
		if len(members) < w.batchSize {
			break
		}
		offset += w.batchSize
	}
	return total
}
