package service

import (
	"encoding/json"

	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/queue"
)

// CommissionEvent 佣金变动事件
type CommissionEvent struct {
	MasterID uint   `json:"master_id"`
	OrderID  uint   `json:"order_id"`
	Level    int    `json:"level"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
}

// NetworkEvent 推荐网络变动事件
type NetworkEvent struct {
	ReferrerID uint        `json:"referrer_id"`
	Tree       interface{} `json:"tree,omitempty"`
}

// EventNotifier 对外事件广播。所有实现都必须是尽力而为：
// 失败只记日志，绝不回滚触发它的台账事务。
type EventNotifier interface {
	NotifyCommissionUpdated(event CommissionEvent)
	NotifyNetworkUpdated(event NetworkEvent)
}

// QueueNotifier 基于异步队列的事件广播
type QueueNotifier struct {
	queue *queue.Client
}

// NewQueueNotifier 创建队列事件广播
func NewQueueNotifier(queueClient *queue.Client) *QueueNotifier {
	return &QueueNotifier{queue: queueClient}
}

// NotifyCommissionUpdated 广播佣金变动
func (n *QueueNotifier) NotifyCommissionUpdated(event CommissionEvent) {
	if n == nil || !n.queue.Enabled() {
		return
	}
	err := n.queue.EnqueueCommissionUpdated(queue.CommissionUpdatedPayload{
		MasterID: event.MasterID,
		OrderID:  event.OrderID,
		Level:    event.Level,
		Amount:   event.Amount,
		Kind:     event.Kind,
	})
	if err != nil {
		logger.Warnw("enqueue commission_updated failed",
			"master_id", event.MasterID,
			"order_id", event.OrderID,
			"error", err)
	}
}

// NotifyNetworkUpdated 广播推荐网络变动
func (n *QueueNotifier) NotifyNetworkUpdated(event NetworkEvent) {
	if n == nil || !n.queue.Enabled() {
		return
	}
	var tree json.RawMessage
	if event.Tree != nil {
		encoded, err := json.Marshal(event.Tree)
		if err != nil {
			logger.Warnw("marshal network tree failed", "referrer_id", event.ReferrerID, "error", err)
		} else {
			tree = encoded
		}
	}
	err := n.queue.EnqueueNetworkUpdated(queue.NetworkUpdatedPayload{
		ReferrerID: event.ReferrerID,
		Tree:       tree,
	})
	if err != nil {
		logger.Warnw("enqueue network_updated failed", "referrer_id", event.ReferrerID, "error", err)
	}
}

// NoopNotifier 空实现，测试与未启用队列时使用
type NoopNotifier struct{}

// NotifyCommissionUpdated 空实现
func (NoopNotifier) NotifyCommissionUpdated(CommissionEvent) {}

// NotifyNetworkUpdated 空实现
func (NoopNotifier) NotifyNetworkUpdated(NetworkEvent) {}
