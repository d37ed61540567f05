package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiuda-next/internal/cache"
	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/repository"
)

const (
	ledgerRetryAttempts = 5
	ledgerRetryBaseWait = 10 * time.Millisecond
)

// TreeReader 佣金服务所需的推荐树重算能力
type TreeReader interface {
	BuildTree(userID uint, maxDepth int) ([]ReferralNode, error)
}

// CommissionService 台账更新器：把佣金与审核落到师傅台账和奖金流水
type CommissionService struct {
	ledgerRepo   repository.LedgerRepository
	bonusRepo    repository.BonusRepository
	referralRepo repository.ReferralRepository
	userRepo     repository.UserRepository
	orderRepo    repository.OrderRepository
	calculator   *CommissionCalculator
	notifier     EventNotifier
	trees        TreeReader
}

// NewCommissionService 创建佣金结算服务
func NewCommissionService(
	ledgerRepo repository.LedgerRepository,
	bonusRepo repository.BonusRepository,
	referralRepo repository.ReferralRepository,
	userRepo repository.UserRepository,
	orderRepo repository.OrderRepository,
	calculator *CommissionCalculator,
	notifier EventNotifier,
) *CommissionService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &CommissionService{
		ledgerRepo:   ledgerRepo,
		bonusRepo:    bonusRepo,
		referralRepo: referralRepo,
		userRepo:     userRepo,
		orderRepo:    orderRepo,
		calculator:   calculator,
		notifier:     notifier,
	}
}

// SetTreeReader 注入推荐树读取器（与 NetworkService 相互独立构造）
func (s *CommissionService) SetTreeReader(trees TreeReader) {
	s.trees = trees
}

// PreviewCommissions 只读预演：与入账路径共用同一套遍历与比例表
func (s *CommissionService) PreviewCommissions(payerID uint, orderAmount decimal.Decimal) ([]CommissionLine, error) {
	return s.calculator.Compute(payerID, orderAmount)
}

// HandlePaymentConfirmed 支付网关确认回调：标记工单已支付并结算佣金。
// 重复回调安全：已支付的工单直接走佣金结算的幂等路径。
func (s *CommissionService) HandlePaymentConfirmed(orderNo string, notifiedAmount *decimal.Decimal) (*models.RepairOrder, []models.BonusEntry, error) {
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, ErrOrderNotFound
	}
	if notifiedAmount != nil && !notifiedAmount.Round(2).Equal(order.Amount.Decimal.Round(2)) {
		logger.Warnw("payment notify amount mismatch",
			"order_no", orderNo,
			"order_amount", order.Amount.String(),
			"notified_amount", notifiedAmount.String())
		return nil, nil, ErrInvalidAmount
	}

	if order.Status == constants.OrderStatusPendingPayment {
		err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
			repo := s.orderRepo.WithTx(tx)
			locked, err := repo.GetByOrderNoForUpdate(orderNo)
			if err != nil {
				return err
			}
			if locked == nil {
				return ErrOrderNotFound
			}
			if locked.Status != constants.OrderStatusPendingPayment {
				*order = *locked
				return nil
			}
			now := time.Now()
			locked.Status = constants.OrderStatusPaid
			locked.PaidAt = &now
			if err := repo.Update(locked); err != nil {
				return err
			}
			*order = *locked
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}

	entries, err := s.ApplyOrderCommissions(order.ID, order.Amount.Decimal, order.ClientID)
	if err != nil {
		return order, nil, err
	}
	return order, entries, nil
}

// ApplyOrderCommissions 对一笔已支付工单结算全链佣金。
// 同一工单重复调用返回已有流水（非错误），满足支付回调的至少一次投递。
func (s *CommissionService) ApplyOrderCommissions(orderID uint, orderAmount decimal.Decimal, clientID uint) ([]models.BonusEntry, error) {
	existing, err := s.bonusRepo.ListByOrder(orderID, constants.BonusTypeOrderCommission)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		logger.Infow("order commissions already applied", "order_id", orderID, "entries", len(existing))
		return existing, nil
	}

	lines, err := s.calculator.Compute(clientID, orderAmount)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []models.BonusEntry{}, nil
	}

	entries := make([]models.BonusEntry, 0, len(lines))
	for _, line := range lines {
		entry, err := s.applyLine(orderID, line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}

	for _, entry := range entries {
		s.notifier.NotifyCommissionUpdated(CommissionEvent{
			MasterID: entry.UserID,
			OrderID:  orderID,
			Level:    entry.Level,
			Amount:   entry.Amount.String(),
			Kind:     "commission_created",
		})
		s.invalidateSummaryCache(entry.UserID)
	}
	s.notifyNetworkChanged(clientID)
	return entries, nil
}

// ListBonuses 分页查询奖金流水
func (s *CommissionService) ListBonuses(filter repository.BonusListFilter) ([]models.BonusEntry, int64, error) {
	return s.bonusRepo.List(filter)
}

// ApproveBonus 审核通过：pending → paid，同时把金额计入台账已实现收益。
func (s *CommissionService) ApproveBonus(bonusID uint) (*models.BonusEntry, error) {
	var approved *models.BonusEntry
	err := s.withLedgerRetry(func() error {
		return s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
			bonusRepo := s.bonusRepo.WithTx(tx)
			ledgerRepo := s.ledgerRepo.WithTx(tx)

			entry, err := bonusRepo.GetByIDForUpdate(bonusID)
			if err != nil {
				return err
			}
			if entry == nil {
				return ErrNotFound
			}
			if entry.Status != constants.BonusStatusPending {
				return ErrBonusStatusInvalid
			}

			ledger, err := ensureLedgerForUpdate(ledgerRepo, entry.UserID)
			if err != nil {
				return err
			}
			ledger.TotalEarnings = models.NewMoneyFromDecimal(
				ledger.TotalEarnings.Decimal.Add(entry.Amount.Decimal).Round(2))
			if err := ledgerRepo.Update(ledger); err != nil {
				return err
			}

			entry.Status = constants.BonusStatusPaid
			if err := bonusRepo.Update(entry); err != nil {
				return err
			}
			approved = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	orderID := uint(0)
	if approved.OrderID != nil {
		orderID = *approved.OrderID
	}
	s.notifier.NotifyCommissionUpdated(CommissionEvent{
		MasterID: approved.UserID,
		OrderID:  orderID,
		Level:    approved.Level,
		Amount:   approved.Amount.String(),
		Kind:     "commission_approved",
	})
	s.invalidateSummaryCache(approved.UserID)
	return approved, nil
}

// applyLine 把单条佣金落库：流水 + 台账 + 推荐边业绩，一个事务一位师傅。
func (s *CommissionService) applyLine(orderID uint, line CommissionLine) (*models.BonusEntry, error) {
	var result *models.BonusEntry
	err := s.withLedgerRetry(func() error {
		return s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
			ledgerRepo := s.ledgerRepo.WithTx(tx)
			bonusRepo := s.bonusRepo.WithTx(tx)
			referralRepo := s.referralRepo.WithTx(tx)

			ledger, err := ensureLedgerForUpdate(ledgerRepo, line.MasterID)
			if err != nil {
				return err
			}

			oid := orderID
			entry := &models.BonusEntry{
				UserID:         line.MasterID,
				Type:           constants.BonusTypeOrderCommission,
				Status:         constants.BonusStatusPending,
				Amount:         line.Amount,
				OrderID:        &oid,
				Level:          line.Level,
				CommissionRate: line.Rate,
				Description:    fmt.Sprintf("order %d level %d commission", orderID, line.Level),
			}

			edge, err := referralRepo.GetByEdgeForUpdate(line.MasterID, line.ViaUserID)
			if err != nil {
				return err
			}
			if edge != nil {
				entry.ReferralID = &edge.ID
			}

			if err := bonusRepo.Create(entry); err != nil {
				if isUniqueViolation(err) {
					// 并发的重复结算：沿用已存在的流水
					rows, lookupErr := bonusRepo.ListByOrder(orderID, constants.BonusTypeOrderCommission)
					if lookupErr != nil {
						return lookupErr
					}
					for i := range rows {
						if rows[i].UserID == line.MasterID && rows[i].Level == line.Level {
							result = &rows[i]
							return nil
						}
					}
					return err
				}
				return err
			}

			ledger.TotalCommissions = models.NewMoneyFromDecimal(
				ledger.TotalCommissions.Decimal.Add(line.Amount.Decimal).Round(2))
			ledger.AvailableBalance = models.NewMoneyFromDecimal(
				ledger.AvailableBalance.Decimal.Add(line.Amount.Decimal).Round(2))
			if err := ledgerRepo.Update(ledger); err != nil {
				return err
			}

			if edge != nil {
				edge.TotalEarned = models.NewMoneyFromDecimal(
					edge.TotalEarned.Decimal.Add(line.Amount.Decimal).Round(2))
				edge.OrdersCount++
				if err := referralRepo.Update(edge); err != nil {
					return err
				}
			}

			result = entry
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// notifyNetworkChanged 重算支付客户直接推荐人的子树并广播，纯通知性质。
func (s *CommissionService) notifyNetworkChanged(clientID uint) {
	client, err := s.userRepo.GetByID(clientID)
	if err != nil || client == nil || client.ReferrerID == nil {
		return
	}
	referrerID := *client.ReferrerID
	var tree interface{}
	if s.trees != nil {
		nodes, err := s.trees.BuildTree(referrerID, constants.ReferralLevelMax)
		if err != nil {
			logger.Warnw("rebuild referral tree failed", "referrer_id", referrerID, "error", err)
		} else {
			tree = nodes
		}
	}
	s.notifier.NotifyNetworkUpdated(NetworkEvent{ReferrerID: referrerID, Tree: tree})
	if err := cache.Del(context.Background(),
		constants.CacheKeyReferralTree+fmt.Sprint(referrerID)); err != nil {
		logger.Warnw("invalidate tree cache failed", "referrer_id", referrerID, "error", err)
	}
}

func (s *CommissionService) invalidateSummaryCache(userID uint) {
	invalidateSummaryCache(userID)
}

// invalidateSummaryCache 尽力失效看板摘要缓存，失败只记日志。
func invalidateSummaryCache(userID uint) {
	if err := cache.Del(context.Background(),
		constants.CacheKeyLedgerSummary+fmt.Sprint(userID)); err != nil {
		logger.Warnw("invalidate summary cache failed", "user_id", userID, "error", err)
	}
}

// withLedgerRetry 对台账事务做有限次重试，吸收 busy / 死锁类瞬时失败。
func (s *CommissionService) withLedgerRetry(fn func() error) error {
	return runWithLedgerRetry(fn)
}

func runWithLedgerRetry(fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < ledgerRetryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(ledgerRetryBaseWait * time.Duration(attempt))
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isRetryableTxError(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("%w: %v", ErrConcurrencyConflict, lastErr)
}

// ensureLedgerForUpdate 加锁读取台账，不存在则惰性创建后再锁定。
func ensureLedgerForUpdate(repo *repository.GormLedgerRepository, userID uint) (*models.MasterLedger, error) {
	ledger, err := repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if ledger != nil {
		return ledger, nil
	}
	fresh := &models.MasterLedger{UserID: userID}
	if err := repo.Create(fresh); err != nil {
		if !isUniqueViolation(err) {
			return nil, err
		}
	}
	ledger, err = repo.GetByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, ErrLedgerNotFound
	}
	return ledger, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique") || strings.Contains(message, "duplicate")
}

func isRetryableTxError(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "busy") ||
		strings.Contains(message, "locked") ||
		strings.Contains(message, "deadlock") ||
		strings.Contains(message, "serialization") ||
		strings.Contains(message, "lock wait timeout")
}
