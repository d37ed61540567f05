package repository

import (
	"errors"

	"github.com/xiuda-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReferralRepository 推荐关系数据访问接口
type ReferralRepository interface {
	GetByEdge(referrerID, referredID uint) (*models.Referral, error)
	GetByEdgeForUpdate(referrerID, referredID uint) (*models.Referral, error)
	ListByReferrer(referrerID uint) ([]models.Referral, error)
	CountByReferrer(referrerID uint) (int64, error)
	Create(referral *models.Referral) error
	Update(referral *models.Referral) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormReferralRepository
}

// GormReferralRepository GORM 推荐关系仓储实现
type GormReferralRepository struct {
	db *gorm.DB
}

// NewReferralRepository 创建推荐关系仓储
func NewReferralRepository(db *gorm.DB) *GormReferralRepository {
	return &GormReferralRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReferralRepository) WithTx(tx *gorm.DB) *GormReferralRepository {
	if tx == nil {
		return r
	}
	return &GormReferralRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormReferralRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByEdge 按推荐边获取记录
func (r *GormReferralRepository) GetByEdge(referrerID, referredID uint) (*models.Referral, error) {
	if referrerID == 0 || referredID == 0 {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// GetByEdgeForUpdate 按推荐边加锁获取记录
func (r *GormReferralRepository) GetByEdgeForUpdate(referrerID, referredID uint) (*models.Referral, error) {
	if referrerID == 0 || referredID == 0 {
		return nil, nil
	}
	var referral models.Referral
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("referrer_id = ? AND referred_id = ?", referrerID, referredID).
		First(&referral).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &referral, nil
}

// ListByReferrer 列出某推荐人的所有出边
func (r *GormReferralRepository) ListByReferrer(referrerID uint) ([]models.Referral, error) {
	if referrerID == 0 {
		return []models.Referral{}, nil
	}
	var referrals []models.Referral
	if err := r.db.Where("referrer_id = ?", referrerID).Order("id asc").Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

// CountByReferrer 统计某推荐人的直接下级数量
func (r *GormReferralRepository) CountByReferrer(referrerID uint) (int64, error) {
	if referrerID == 0 {
		return 0, nil
	}
	var total int64
	if err := r.db.Model(&models.Referral{}).
		Where("referrer_id = ?", referrerID).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Create 创建推荐边
func (r *GormReferralRepository) Create(referral *models.Referral) error {
	return r.db.Create(referral).Error
}

// Update 更新推荐边
func (r *GormReferralRepository) Update(referral *models.Referral) error {
	return r.db.Save(referral).Error
}
