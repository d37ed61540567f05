package repository

import (
	"errors"

	"github.com/xiuda-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 师傅台账数据访问接口
type LedgerRepository interface {
	GetByUserID(userID uint) (*models.MasterLedger, error)
	GetByUserIDForUpdate(userID uint) (*models.MasterLedger, error)
	GetByUserIDs(userIDs []uint) ([]models.MasterLedger, error)
	Create(ledger *models.MasterLedger) error
	Update(ledger *models.MasterLedger) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormLedgerRepository
}

// GormLedgerRepository GORM 台账仓储实现
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository 创建台账仓储
func NewLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLedgerRepository) WithTx(tx *gorm.DB) *GormLedgerRepository {
	if tx == nil {
		return r
	}
	return &GormLedgerRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormLedgerRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByUserID 按用户ID获取台账
func (r *GormLedgerRepository) GetByUserID(userID uint) (*models.MasterLedger, error) {
	if userID == 0 {
		return nil, nil
	}
	var ledger models.MasterLedger
	if err := r.db.Where("user_id = ?", userID).First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ledger, nil
}

// GetByUserIDForUpdate 按用户ID加锁获取台账
func (r *GormLedgerRepository) GetByUserIDForUpdate(userID uint) (*models.MasterLedger, error) {
	if userID == 0 {
		return nil, nil
	}
	var ledger models.MasterLedger
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&ledger).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ledger, nil
}

// GetByUserIDs 批量获取台账
func (r *GormLedgerRepository) GetByUserIDs(userIDs []uint) ([]models.MasterLedger, error) {
	if len(userIDs) == 0 {
		return []models.MasterLedger{}, nil
	}
	var ledgers []models.MasterLedger
	if err := r.db.Where("user_id IN ?", userIDs).Find(&ledgers).Error; err != nil {
		return nil, err
	}
	return ledgers, nil
}

// Create 创建台账
func (r *GormLedgerRepository) Create(ledger *models.MasterLedger) error {
	return r.db.Create(ledger).Error
}

// Update 更新台账
func (r *GormLedgerRepository) Update(ledger *models.MasterLedger) error {
	return r.db.Save(ledger).Error
}
