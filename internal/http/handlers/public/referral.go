package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/xiuda-next/internal/http/response"
	"github.com/xiuda-next/internal/repository"
	"github.com/xiuda-next/internal/service"
)

// GetReferralDashboard 我的分销看板（缓存摘要）
func (h *Handler) GetReferralDashboard(c *gin.Context) {
	uid := authUserID(c)
	if uid == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	summary, err := h.NetworkService.GetLedgerSummary(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		response.ServerError(c, "load dashboard failed")
		return
	}
	response.Success(c, summary)
}

// GetReferralTree 我的推荐树
func (h *Handler) GetReferralTree(c *gin.Context) {
	uid := authUserID(c)
	if uid == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "3"))
	nodes, err := h.NetworkService.BuildTree(uid, depth)
	if err != nil {
		response.ServerError(c, "build referral tree failed")
		return
	}
	response.Success(c, nodes)
}

// PreviewCommissionsRequest 佣金预演请求
type PreviewCommissionsRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// PreviewCommissions 预演一笔订单会产生的佣金，不落库
func (h *Handler) PreviewCommissions(c *gin.Context) {
	uid := authUserID(c)
	if uid == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	var req PreviewCommissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		response.BadRequest(c, "invalid amount")
		return
	}

	lines, err := h.CommissionService.PreviewCommissions(uid, amount)
	if err != nil {
		response.ServerError(c, "preview failed")
		return
	}
	response.Success(c, lines)
}

// ListMyBonuses 我的奖金流水
func (h *Handler) ListMyBonuses(c *gin.Context) {
	uid := authUserID(c)
	if uid == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.CommissionService.ListBonuses(repository.BonusListFilter{
		UserID:   uid,
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

// RequestPayoutRequest 提现请求，amount 为空表示全额提现
type RequestPayoutRequest struct {
	Amount string `json:"amount"`
}

// RequestPayout 发起提现
func (h *Handler) RequestPayout(c *gin.Context) {
	uid := authUserID(c)
	if uid == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	var requested *decimal.Decimal
	if strings.TrimSpace(req.Amount) != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			response.BadRequest(c, "invalid amount")
			return
		}
		requested = &amount
	}

	result, err := h.PayoutService.RequestPayout(uid, requested)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLedgerNotFound):
			response.NotFound(c, "ledger record not found")
		case errors.Is(err, service.ErrConcurrencyConflict):
			response.Error(c, response.CodeConflict, "concurrent update, please retry")
		default:
			response.ServerError(c, "payout failed")
		}
		return
	}
	response.Success(c, result)
}

// BindReferrerRequest 绑定推荐人请求
type BindReferrerRequest struct {
	ReferralCode string `json:"referral_code"`
	ReferrerID   uint   `json:"referrer_id"`
}

// BindReferrer 绑定推荐关系（推荐码或推荐人ID二选一），幂等
func (h *Handler) BindReferrer(c *gin.Context) {
	uid := authUserID(c)
	if uid == 0 {
		response.Unauthorized(c, "login required")
		return
	}
	var req BindReferrerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	referrerID := req.ReferrerID
	if referrerID == 0 && strings.TrimSpace(req.ReferralCode) != "" {
		referrer, err := h.NetworkService.ResolveReferralCode(req.ReferralCode)
		if err != nil {
			response.ServerError(c, "resolve referral code failed")
			return
		}
		if referrer == nil {
			response.NotFound(c, "referral code not found")
			return
		}
		referrerID = referrer.ID
	}
	if referrerID == 0 {
		response.BadRequest(c, "referral_code or referrer_id required")
		return
	}

	edge, err := h.NetworkService.CreateReferral(referrerID, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfReferral):
			response.BadRequest(c, "cannot refer yourself")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "user not found")
		case errors.Is(err, service.ErrConcurrencyConflict):
			response.Error(c, response.CodeConflict, "concurrent update, please retry")
		default:
			response.ServerError(c, "bind referrer failed")
		}
		return
	}
	response.Success(c, edge)
}
