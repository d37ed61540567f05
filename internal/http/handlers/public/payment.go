package public

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xiuda-next/internal/http/response"
	"github.com/xiuda-next/internal/service"
)

// PaymentNotifyRequest 支付网关确认回调请求
type PaymentNotifyRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
	Amount  string `json:"amount"`
}

// PaymentNotify 支付确认回调：标记工单已支付并结算佣金。
// 网关按至少一次投递，重复回调返回同一结果。
func (h *Handler) PaymentNotify(c *gin.Context) {
	var req PaymentNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	var notified *decimal.Decimal
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			response.BadRequest(c, "invalid amount")
			return
		}
		notified = &amount
	}

	order, entries, err := h.CommissionService.HandlePaymentConfirmed(req.OrderNo, notified)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			response.NotFound(c, "order not found")
		case errors.Is(err, service.ErrInvalidAmount):
			response.BadRequest(c, "amount mismatch")
		case errors.Is(err, service.ErrConcurrencyConflict):
			response.Error(c, response.CodeConflict, "concurrent update, please retry")
		default:
			response.ServerError(c, "apply commissions failed")
		}
		return
	}
	response.Success(c, gin.H{
		"order_no":    order.OrderNo,
		"status":      order.Status,
		"commissions": entries,
	})
}
