package job

import (
	"context"
	"log/slog"

	"budgetledger/internal/config"
	"budgetledger/internal/infrastructure/mq"
	"budgetledger/internal/model"
	"budgetledger/internal/repository"

	"gorm.io/gorm"
)

// OutboxRelay 把发件箱中的待发送消息投递到 Kafka
//
// 每次调用处理一批，由 ledgerctl relay 定时触发，进程内不常驻循环。
// 投递成功标记 SENT；失败累加重试次数，达到上限标记 FAILED。
type OutboxRelay struct {
	outboxRepo *repository.OutboxRepository
	publisher  mq.Publisher
	batchSize  int
	maxRetry   int
	log        *slog.Logger
}

func NewOutboxRelay(db *gorm.DB, publisher mq.Publisher, cfg *config.OutboxConfig) *OutboxRelay {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		outboxRepo: repository.NewOutboxRepository(db),
		publisher:  publisher,
		batchSize:  batchSize,
		maxRetry:   cfg.MaxRetryCount,
		log:        slog.Default().With("component", "outbox"),
	}
}

// RelayStats 一次投递的统计
type RelayStats struct {
	Sent   int `json:"sent"`
	Retry  int `json:"retry"`
	Failed int `json:"failed"`
}

// RunOnce 投递一批待发送消息
func (r *OutboxRelay) RunOnce(ctx context.Context) (RelayStats, error) {
	var stats RelayStats

	messages, err := r.outboxRepo.GetPendingMessages(ctx, r.batchSize)
	if err != nil {
		return stats, err
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		switch r.send(ctx, msg) {
		case model.OutboxStatusSent:
			stats.Sent++
		case model.OutboxStatusFailed:
			stats.Failed++
		default:
			stats.Retry++
		}
	}

	if len(messages) > 0 {
		r.log.Info("outbox relayed", "sent", stats.Sent, "retry", stats.Retry, "failed", stats.Failed)
	}
	return stats, nil
}

// send 返回消息处理后的状态
func (r *OutboxRelay) send(ctx context.Context, msg *model.OutboxMessage) string {
	err := r.publisher.Publish(msg.Topic, msg.MessageKey, msg.Payload)
	if err == nil {
		if err := r.outboxRepo.MarkAsSent(ctx, msg.ID); err != nil {
			r.log.Error("mark outbox message sent", "id", msg.ID, "err", err)
		}
		return model.OutboxStatusSent
	}

	r.log.Warn("publish outbox message", "id", msg.ID, "event", msg.EventType, "err", err)

	failed := msg.RetryCount+1 >= r.maxRetry
	if err := r.outboxRepo.RecordFailure(ctx, msg.ID, failed); err != nil {
		r.log.Error("record outbox failure", "id", msg.ID, "err", err)
	}
	if failed {
		r.log.Error("outbox message exceeded max retries", "id", msg.ID, "retry_count", msg.RetryCount+1)
		return model.OutboxStatusFailed
	}
	return model.OutboxStatusPending
}
