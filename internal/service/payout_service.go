package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/repository"
)

// PayoutResult 提现结果。余额不足不是错误，而是 Success=false 的正常返回。
type PayoutResult struct {
	Success      bool         `json:"success"`
	PayoutAmount models.Money `json:"payout_amount"`
	NewBalance   models.Money `json:"new_balance"`
	Message      string       `json:"message"`
	Entry        *models.BonusEntry `json:"entry,omitempty"`
}

// PayoutService 提现处理器：校验可用余额并原子落账
type PayoutService struct {
	ledgerRepo repository.LedgerRepository
	bonusRepo  repository.BonusRepository
	notifier   EventNotifier
}

// NewPayoutService 创建提现服务
func NewPayoutService(
	ledgerRepo repository.LedgerRepository,
	bonusRepo repository.BonusRepository,
	notifier EventNotifier,
) *PayoutService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &PayoutService{ledgerRepo: ledgerRepo, bonusRepo: bonusRepo, notifier: notifier}
}

// RequestPayout 发起提现。requested 为空表示提取全部可用余额；
// requested 超出可用余额时按全部可用余额执行。
func (s *PayoutService) RequestPayout(masterID uint, requested *decimal.Decimal) (*PayoutResult, error) {
	ledger, err := s.ledgerRepo.GetByUserID(masterID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, ErrLedgerNotFound
	}

	var result *PayoutResult
	err = runWithLedgerRetry(func() error {
		return s.ledgerRepo.Transaction(func(tx *gorm.DB) error {
			ledgerRepo := s.ledgerRepo.WithTx(tx)
			bonusRepo := s.bonusRepo.WithTx(tx)

			locked, err := ledgerRepo.GetByUserIDForUpdate(masterID)
			if err != nil {
				return err
			}
			if locked == nil {
				return ErrLedgerNotFound
			}

			available := locked.AvailableBalance.Decimal.Round(2)
			payout := available
			if requested != nil {
				amount := requested.Round(2)
				if amount.LessThanOrEqual(available) {
					payout = amount
				}
			}
			if !payout.IsPositive() {
				result = &PayoutResult{
					Success:      false,
					PayoutAmount: models.NewMoneyFromDecimal(decimal.Zero),
					NewBalance:   models.NewMoneyFromDecimal(available),
					Message:      "insufficient funds",
				}
				return nil
			}

			entry := &models.BonusEntry{
				UserID:      masterID,
				Type:        constants.BonusTypeWithdrawal,
				Status:      constants.BonusStatusPaid,
				Amount:      models.NewMoneyFromDecimal(payout),
				Description: "balance withdrawal",
				Reference:   "PO-" + uuid.NewString(),
			}
			if err := bonusRepo.Create(entry); err != nil {
				return err
			}

			locked.AvailableBalance = models.NewMoneyFromDecimal(available.Sub(payout).Round(2))
			locked.WithdrawnAmount = models.NewMoneyFromDecimal(
				locked.WithdrawnAmount.Decimal.Add(payout).Round(2))
			if err := ledgerRepo.Update(locked); err != nil {
				return err
			}

			result = &PayoutResult{
				Success:      true,
				PayoutAmount: models.NewMoneyFromDecimal(payout),
				NewBalance:   locked.AvailableBalance,
				Message:      "payout completed",
				Entry:        entry,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Success {
		s.notifier.NotifyCommissionUpdated(CommissionEvent{
			MasterID: masterID,
			Level:    0,
			Amount:   result.PayoutAmount.String(),
			Kind:     "withdrawal",
		})
		invalidateSummaryCache(masterID)
		logger.Infow("payout completed",
			"master_id", masterID,
			"amount", result.PayoutAmount.String(),
			"new_balance", result.NewBalance.String())
	}
	return result, nil
}
