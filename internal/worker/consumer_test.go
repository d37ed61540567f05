package worker

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"

	"github.com/xiuda-next/internal/queue"
)

func TestHandleCommissionUpdated(t *testing.T) {
	consumer := NewConsumer(nil)

	task, err := queue.NewCommissionUpdatedTask(queue.CommissionUpdatedPayload{
		MasterID: 2,
		OrderID:  7,
		Level:    1,
		Amount:   "1000.00",
		Kind:     "commission_created",
	})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleCommissionUpdated(context.Background(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	// 非法载荷必须返回错误，交给 asynq 重试
	bad := asynq.NewTask(queue.TaskCommissionUpdated, []byte("not-json"))
	if err := consumer.handleCommissionUpdated(context.Background(), bad); err == nil {
		t.Fatalf("malformed payload must fail")
	}

	// 缺失 master_id 的载荷直接丢弃，不触发重试
	empty, err := queue.NewCommissionUpdatedTask(queue.CommissionUpdatedPayload{})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleCommissionUpdated(context.Background(), empty); err != nil {
		t.Fatalf("empty payload must be dropped silently: %v", err)
	}
}

func TestHandleNetworkUpdated(t *testing.T) {
	consumer := NewConsumer(nil)

	task, err := queue.NewNetworkUpdatedTask(queue.NetworkUpdatedPayload{ReferrerID: 3})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleNetworkUpdated(context.Background(), task); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	bad := asynq.NewTask(queue.TaskNetworkUpdated, []byte("{"))
	if err := consumer.handleNetworkUpdated(context.Background(), bad); err == nil {
		t.Fatalf("malformed payload must fail")
	}
}
