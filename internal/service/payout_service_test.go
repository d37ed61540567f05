package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/repository"
)

func setupPayoutServiceTest(t *testing.T) (*PayoutService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:payout_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewPayoutService(repository.NewLedgerRepository(db), repository.NewBonusRepository(db), NoopNotifier{})
	return svc, db
}

func createLedger(t *testing.T, db *gorm.DB, userID uint, available, withdrawn int64) *models.MasterLedger {
	t.Helper()
	ledger := &models.MasterLedger{
		UserID:           userID,
		TotalCommissions: models.NewMoneyFromDecimal(decimal.NewFromInt(available + withdrawn)),
		AvailableBalance: models.NewMoneyFromDecimal(decimal.NewFromInt(available)),
		WithdrawnAmount:  models.NewMoneyFromDecimal(decimal.NewFromInt(withdrawn)),
	}
	if err := db.Create(ledger).Error; err != nil {
		t.Fatalf("create ledger failed: %v", err)
	}
	return ledger
}

func TestRequestPayoutFullBalance(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)
	createLedger(t, db, 2, 1500, 0)

	result, err := svc.RequestPayout(2, nil)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if !result.PayoutAmount.Decimal.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected payout amount: %s", result.PayoutAmount.String())
	}
	if !result.NewBalance.Decimal.IsZero() {
		t.Fatalf("expected zero balance, got %s", result.NewBalance.String())
	}
	if result.Entry == nil || result.Entry.Type != constants.BonusTypeWithdrawal ||
		result.Entry.Status != constants.BonusStatusPaid {
		t.Fatalf("unexpected withdrawal entry: %+v", result.Entry)
	}
	if result.Entry.Reference == "" {
		t.Fatalf("withdrawal entry must carry a reference")
	}

	ledger := ledgerOf(t, db, 2)
	if !ledger.AvailableBalance.Decimal.IsZero() ||
		!ledger.WithdrawnAmount.Decimal.Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("unexpected ledger after payout: %+v", ledger)
	}
}

func TestRequestPayoutPartial(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)
	createLedger(t, db, 2, 1000, 200)

	requested := decimal.NewFromInt(400)
	result, err := svc.RequestPayout(2, &requested)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	if !result.Success || !result.PayoutAmount.Decimal.Equal(decimal.NewFromInt(400)) {
		t.Fatalf("unexpected result: %+v", result)
	}
	if !result.NewBalance.Decimal.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("unexpected new balance: %s", result.NewBalance.String())
	}

	ledger := ledgerOf(t, db, 2)
	if !ledger.WithdrawnAmount.Decimal.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("unexpected withdrawn amount: %s", ledger.WithdrawnAmount.String())
	}
}

// 请求金额超出可用余额时按全部可用余额执行，而不是报错
func TestRequestPayoutExceedsBalance(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)
	createLedger(t, db, 2, 300, 0)

	requested := decimal.NewFromInt(10000)
	result, err := svc.RequestPayout(2, &requested)
	if err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	if !result.Success || !result.PayoutAmount.Decimal.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected full available payout, got %+v", result)
	}
	ledger := ledgerOf(t, db, 2)
	if ledger.AvailableBalance.Decimal.IsNegative() {
		t.Fatalf("balance must never go negative: %s", ledger.AvailableBalance.String())
	}
}

func TestRequestPayoutInsufficientFunds(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)
	createLedger(t, db, 2, 0, 500)

	result, err := svc.RequestPayout(2, nil)
	if err != nil {
		t.Fatalf("payout must not error on empty balance: %v", err)
	}
	if result.Success {
		t.Fatalf("expected insufficient-funds result, got %+v", result)
	}
	if result.Message != "insufficient funds" {
		t.Fatalf("unexpected message: %s", result.Message)
	}

	// 无任何副作用：台账不动、不产生提现流水
	ledger := ledgerOf(t, db, 2)
	if !ledger.WithdrawnAmount.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("withdrawn amount must be unchanged: %s", ledger.WithdrawnAmount.String())
	}
	var count int64
	if err := db.Model(&models.BonusEntry{}).
		Where("type = ?", constants.BonusTypeWithdrawal).Count(&count).Error; err != nil {
		t.Fatalf("count entries failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no withdrawal entries expected, got %d", count)
	}
}

func TestRequestPayoutNoLedger(t *testing.T) {
	svc, _ := setupPayoutServiceTest(t)
	if _, err := svc.RequestPayout(42, nil); !errors.Is(err, ErrLedgerNotFound) {
		t.Fatalf("expected ErrLedgerNotFound, got %v", err)
	}
}

// 两次连续提现守住 available = commissions - withdrawn 的守恒
func TestRequestPayoutBalanceConservation(t *testing.T) {
	svc, db := setupPayoutServiceTest(t)
	createLedger(t, db, 2, 1000, 0)

	first := decimal.NewFromInt(250)
	if _, err := svc.RequestPayout(2, &first); err != nil {
		t.Fatalf("first payout failed: %v", err)
	}
	second := decimal.NewFromInt(350)
	if _, err := svc.RequestPayout(2, &second); err != nil {
		t.Fatalf("second payout failed: %v", err)
	}

	ledger := ledgerOf(t, db, 2)
	if !ledger.AvailableBalance.Decimal.Equal(decimal.NewFromInt(400)) ||
		!ledger.WithdrawnAmount.Decimal.Equal(decimal.NewFromInt(600)) {
		t.Fatalf("unexpected ledger: %+v", ledger)
	}
	sum := ledger.AvailableBalance.Decimal.Add(ledger.WithdrawnAmount.Decimal)
	if !sum.Equal(ledger.TotalCommissions.Decimal) {
		t.Fatalf("invariant broken: available+withdrawn=%s, commissions=%s",
			sum.String(), ledger.TotalCommissions.String())
	}
}
