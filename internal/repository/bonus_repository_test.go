package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupBonusRepositoryTest(t *testing.T) (*GormBonusRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:bonus_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.BonusEntry{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewBonusRepository(db), db
}

func createBonusEntry(t *testing.T, db *gorm.DB, userID uint, orderID *uint, level int, status string, amount int64) *models.BonusEntry {
	t.Helper()
	entry := &models.BonusEntry{
		UserID:  userID,
		Type:    constants.BonusTypeOrderCommission,
		Status:  status,
		Amount:  models.NewMoneyFromDecimal(decimal.NewFromInt(amount)),
		OrderID: orderID,
		Level:   level,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("create bonus entry failed: %v", err)
	}
	return entry
}

func TestBonusRepositoryListByOrderOrdering(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	oid := uint(7)
	createBonusEntry(t, db, 3, &oid, 2, constants.BonusStatusPending, 50)
	createBonusEntry(t, db, 2, &oid, 1, constants.BonusStatusPending, 100)
	other := uint(8)
	createBonusEntry(t, db, 2, &other, 1, constants.BonusStatusPending, 30)

	entries, err := repo.ListByOrder(oid, constants.BonusTypeOrderCommission)
	if err != nil {
		t.Fatalf("list by order failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != 1 || entries[1].Level != 2 {
		t.Fatalf("entries must be ordered by level: %+v", entries)
	}
}

func TestBonusRepositoryUniqueOrderUserLevel(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	oid := uint(7)
	createBonusEntry(t, db, 2, &oid, 1, constants.BonusStatusPending, 100)

	dup := &models.BonusEntry{
		UserID:  2,
		Type:    constants.BonusTypeOrderCommission,
		Status:  constants.BonusStatusPending,
		Amount:  models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		OrderID: &oid,
		Level:   1,
	}
	if err := repo.Create(dup); err == nil {
		t.Fatalf("duplicate (user, order, level) must be rejected")
	}

	// 提现流水没有工单号，不受该唯一约束影响
	for i := 0; i < 2; i++ {
		withdrawal := &models.BonusEntry{
			UserID: 2,
			Type:   constants.BonusTypeWithdrawal,
			Status: constants.BonusStatusPaid,
			Amount: models.NewMoneyFromDecimal(decimal.NewFromInt(10)),
		}
		if err := repo.Create(withdrawal); err != nil {
			t.Fatalf("withdrawal %d must be allowed: %v", i, err)
		}
	}
}

func TestBonusRepositoryListFilterAndPagination(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	for i := 0; i < 5; i++ {
		oid := uint(100 + i)
		createBonusEntry(t, db, 2, &oid, 1, constants.BonusStatusPending, int64(10*(i+1)))
	}
	oid := uint(200)
	createBonusEntry(t, db, 3, &oid, 1, constants.BonusStatusPaid, 999)

	entries, total, err := repo.List(BonusListFilter{UserID: 2, Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if len(entries) != 2 {
		t.Fatalf("expected page of 2, got %d", len(entries))
	}
	if entries[0].ID < entries[1].ID {
		t.Fatalf("entries must be newest first: %+v", entries)
	}

	entries, total, err = repo.List(BonusListFilter{Status: constants.BonusStatusPaid})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(entries) != 1 || entries[0].UserID != 3 {
		t.Fatalf("unexpected status filter result: total=%d entries=%+v", total, entries)
	}
}

func TestBonusRepositorySumAmountByStatus(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	a, b, c := uint(1), uint(2), uint(3)
	createBonusEntry(t, db, 2, &a, 1, constants.BonusStatusPending, 100)
	createBonusEntry(t, db, 2, &b, 1, constants.BonusStatusPending, 50)
	createBonusEntry(t, db, 2, &c, 1, constants.BonusStatusPaid, 30)
	d := uint(4)
	createBonusEntry(t, db, 9, &d, 1, constants.BonusStatusPending, 777)

	stats, err := repo.SumAmountByUserAndStatus(2, "")
	if err != nil {
		t.Fatalf("sum failed: %v", err)
	}
	if !stats[constants.BonusStatusPending].Decimal.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected pending sum: %s", stats[constants.BonusStatusPending].String())
	}
	if !stats[constants.BonusStatusPaid].Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected paid sum: %s", stats[constants.BonusStatusPaid].String())
	}
}

func TestBonusRepositoryListRecentByUser(t *testing.T) {
	repo, db := setupBonusRepositoryTest(t)
	for i := 0; i < 15; i++ {
		oid := uint(300 + i)
		createBonusEntry(t, db, 2, &oid, 1, constants.BonusStatusPending, 10)
	}

	entries, err := repo.ListRecentByUser(2, 10)
	if err != nil {
		t.Fatalf("list recent failed: %v", err)
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	if entries[0].ID < entries[9].ID {
		t.Fatalf("entries must be newest first")
	}
}
