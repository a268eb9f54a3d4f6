package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/sme-community/internal/model"
	"github.com/d60-Lab/sme-community/internal/repository"
	"github.com/d60-Lab/sme-community/pkg/logger"
)

type milestoneJob struct {
	authorID   string
	entityType string
	entityID   string
	likes      int64
	enqAt      time.Time
}

// MilestoneNotifier 点赞里程碑通知的本地异步执行器（fire-and-forget）
// 队列满直接丢弃：通知是尽力而为，不反压互动写路径
type MilestoneNotifier struct {
	notifyRepo repository.NotificationRepository
	ch         chan milestoneJob
	metricsCh  chan time.Duration
}

func NewMilestoneNotifier(notifyRepo repository.NotificationRepository, queueSize int) *MilestoneNotifier {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &MilestoneNotifier{
		notifyRepo: notifyRepo,
		ch:         make(chan milestoneJob, queueSize),
		metricsCh:  make(chan time.Duration, 65536),
	}
}

func (n *MilestoneNotifier) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 4
	}
	stopCh := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			for {
				select {
				case job := <-n.ch:
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					err := n.notifyRepo.Create(ctx, &model.Notification{
						UserID:     job.authorID,
						Type:       "milestone",
						EntityType: job.entityType,
						EntityID:   job.entityID,
						Payload:    fmt.Sprintf(`{"likes":%d}`, job.likes),
					})
					cancel()
					if err != nil {
						logger.Warn("milestone notify failed",
							zap.String("entity", job.entityID), zap.Error(err))
					}
					if !job.enqAt.IsZero() {
						select {
						case n.metricsCh <- time.Since(job.enqAt):
						default:
						}
					}
				case <-stopCh:
					return
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		// 等待队列自然排空一小段时间
		timeout := time.After(2 * time.Second)
		for {
			select {
			case <-timeout:
				return nil
			default:
				if len(n.ch) == 0 {
					return nil
				}
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (n *MilestoneNotifier) EnqueueMilestone(authorID, entityType, entityID string, likes int64) {
	select {
	case n.ch <- milestoneJob{authorID: authorID, entityType: entityType, entityID: entityID, likes: likes, enqAt: time.Now()}:
	default:
		logger.Warn("notifier queue full, drop milestone",
			zap.String("author", authorID), zap.String("entity", entityID))
	}
}

// Metrics 返回通知落地耗时的只读通道（每处理一条发送一次 duration）。
func (n *MilestoneNotifier) Metrics() <-chan time.Duration { return n.metricsCh }

// QueueLen 返回当前队列长度（采样值）。
func (n *MilestoneNotifier) QueueLen() int { return len(n.ch) }
