package queue

import (
	"encoding/json"

	"github.com/xiuda-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskCommissionUpdated 佣金变动广播任务
	TaskCommissionUpdated = constants.TaskCommissionUpdated
	// TaskNetworkUpdated 推荐网络变动广播任务
	TaskNetworkUpdated = constants.TaskNetworkUpdated
)

// CommissionUpdatedPayload 佣金变动任务载荷
type CommissionUpdatedPayload struct {
	MasterID uint   `json:"master_id"`
	OrderID  uint   `json:"order_id"`
	Level    int    `json:"level"`
	Amount   string `json:"amount"`
	Kind     string `json:"kind"`
}

// NetworkUpdatedPayload 推荐网络变动任务载荷
type NetworkUpdatedPayload struct {
	ReferrerID uint            `json:"referrer_id"`
	Tree       json.RawMessage `json:"tree,omitempty"`
}

// NewCommissionUpdatedTask 创建佣金变动任务
func NewCommissionUpdatedTask(payload CommissionUpdatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCommissionUpdated, body), nil
}

// NewNetworkUpdatedTask 创建推荐网络变动任务
func NewNetworkUpdatedTask(payload NetworkUpdatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNetworkUpdated, body), nil
}
