package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/xiuda-next/internal/cache"
	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/provider"
	"github.com/xiuda-next/internal/queue"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{Container: c}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskCommissionUpdated, c.handleCommissionUpdated)
	mux.HandleFunc(queue.TaskNetworkUpdated, c.handleNetworkUpdated)
}

// handleCommissionUpdated 佣金变动：记录并失效相关看板缓存
func (c *Consumer) handleCommissionUpdated(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.CommissionUpdatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_commission_updated_unmarshal_failed", "error", err)
		return err
	}
	if payload.MasterID == 0 {
		logger.Debugw("worker_commission_updated_skip_invalid_payload")
		return nil
	}
	logger.Infow("commission updated",
		"master_id", payload.MasterID,
		"order_id", payload.OrderID,
		"level", payload.Level,
		"amount", payload.Amount,
		"kind", payload.Kind,
	)
	if err := cache.Del(ctx, constants.CacheKeyLedgerSummary+fmt.Sprint(payload.MasterID)); err != nil {
		logger.Warnw("worker_commission_updated_cache_del_failed", "master_id", payload.MasterID, "error", err)
	}
	return nil
}

// handleNetworkUpdated 推荐网络变动：记录并失效推荐树缓存
func (c *Consumer) handleNetworkUpdated(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		return nil
	}
	var payload queue.NetworkUpdatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_network_updated_unmarshal_failed", "error", err)
		return err
	}
	if payload.ReferrerID == 0 {
		logger.Debugw("worker_network_updated_skip_invalid_payload")
		return nil
	}
	logger.Infow("referral network updated", "referrer_id", payload.ReferrerID)
	err := cache.Del(ctx,
		constants.CacheKeyReferralTree+fmt.Sprint(payload.ReferrerID),
		constants.CacheKeyLedgerSummary+fmt.Sprint(payload.ReferrerID))
	if err != nil {
		logger.Warnw("worker_network_updated_cache_del_failed", "referrer_id", payload.ReferrerID, "error", err)
	}
	return nil
}
