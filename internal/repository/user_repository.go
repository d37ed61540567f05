package repository

import (
	"errors"
	"strings"

	"github.com/xiuda-next/internal/models"

	"gorm.io/gorm"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	GetByIDs(ids []uint) ([]models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByReferralCode(code string) (*models.User, error)
	Create(user *models.User) error
	Update(user *models.User) error
	ListByReferrer(referrerID uint) ([]models.User, error)
	WithTx(tx *gorm.DB) *GormUserRepository
}

// GormUserRepository GORM 用户仓储实现
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserRepository) WithTx(tx *gorm.DB) *GormUserRepository {
	if tx == nil {
		return r
	}
	return &GormUserRepository{db: tx}
}

// GetByID 按ID获取用户
func (r *GormUserRepository) GetByID(id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByIDs 批量获取用户
func (r *GormUserRepository) GetByIDs(ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// GetByEmail 按邮箱获取用户
func (r *GormUserRepository) GetByEmail(email string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetByReferralCode 按推荐码获取用户
func (r *GormUserRepository) GetByReferralCode(code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	var user models.User
	if err := r.db.Where("referral_code = ?", code).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create 创建用户
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// Update 更新用户
func (r *GormUserRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// ListByReferrer 列出某推荐人的直接下级
func (r *GormUserRepository) ListByReferrer(referrerID uint) ([]models.User, error) {
	if referrerID == 0 {
		return []models.User{}, nil
	}
	var users []models.User
	if err := r.db.Where("referrer_id = ?", referrerID).Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
