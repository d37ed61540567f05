package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiuda-next/internal/http/response"
	"github.com/xiuda-next/internal/repository"
	"github.com/xiuda-next/internal/service"
)

// ListBonuses 管理端分页查询奖金流水
func (h *Handler) ListBonuses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	orderID, _ := strconv.ParseUint(c.Query("order_id"), 10, 64)

	rows, total, err := h.CommissionService.ListBonuses(repository.BonusListFilter{
		UserID:   uint(userID),
		OrderID:  uint(orderID),
		Type:     strings.TrimSpace(c.Query("type")),
		Status:   strings.TrimSpace(c.Query("status")),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.ServerError(c, "list bonuses failed")
		return
	}
	response.SuccessWithPage(c, rows, response.NewPagination(page, pageSize, total))
}

// ApproveBonus 审核通过一条待审奖金
func (h *Handler) ApproveBonus(c *gin.Context) {
	bonusID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bonusID == 0 {
		response.BadRequest(c, "invalid bonus id")
		return
	}

	entry, err := h.CommissionService.ApproveBonus(uint(bonusID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			response.NotFound(c, "bonus not found")
		case errors.Is(err, service.ErrBonusStatusInvalid):
			response.BadRequest(c, "bonus is not pending")
		case errors.Is(err, service.ErrConcurrencyConflict):
			response.Error(c, response.CodeConflict, "concurrent update, please retry")
		default:
			response.ServerError(c, "approve bonus failed")
		}
		return
	}
	response.Success(c, entry)
}
