package repository

import (
	"errors"
	"time"

	"github.com/xiuda-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BonusRepository 奖金流水数据访问接口
type BonusRepository interface {
	GetByID(id uint) (*models.BonusEntry, error)
	GetByIDForUpdate(id uint) (*models.BonusEntry, error)
	ListByOrder(orderID uint, bonusType string) ([]models.BonusEntry, error)
	List(filter BonusListFilter) ([]models.BonusEntry, int64, error)
	ListRecentByUser(userID uint, limit int) ([]models.BonusEntry, error)
	SumAmountByUserAndStatus(userID uint, bonusType string) (map[string]models.Money, error)
	Create(entry *models.BonusEntry) error
	Update(entry *models.BonusEntry) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormBonusRepository
}

// BonusListFilter 奖金流水查询条件
type BonusListFilter struct {
	UserID      uint
	OrderID     uint
	Type        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Page        int
	PageSize    int
}

// GormBonusRepository GORM 奖金流水仓储实现
type GormBonusRepository struct {
	db *gorm.DB
}

// NewBonusRepository 创建奖金流水仓储
func NewBonusRepository(db *gorm.DB) *GormBonusRepository {
	return &GormBonusRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBonusRepository) WithTx(tx *gorm.DB) *GormBonusRepository {
	if tx == nil {
		return r
	}
	return &GormBonusRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormBonusRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按ID获取流水
func (r *GormBonusRepository) GetByID(id uint) (*models.BonusEntry, error) {
	if id == 0 {
		return nil, nil
	}
	var entry models.BonusEntry
	if err := r.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// GetByIDForUpdate 按ID加锁获取流水
func (r *GormBonusRepository) GetByIDForUpdate(id uint) (*models.BonusEntry, error) {
	if id == 0 {
		return nil, nil
	}
	var entry models.BonusEntry
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Create 创建流水
func (r *GormBonusRepository) Create(entry *models.BonusEntry) error {
	return r.db.Create(entry).Error
}

// Update 更新流水
func (r *GormBonusRepository) Update(entry *models.BonusEntry) error {
	return r.db.Save(entry).Error
}

// ListByOrder 按工单列出某类流水
func (r *GormBonusRepository) ListByOrder(orderID uint, bonusType string) ([]models.BonusEntry, error) {
	if orderID == 0 {
		return []models.BonusEntry{}, nil
	}
	query := r.db.Where("order_id = ?", orderID)
	if bonusType != "" {
		query = query.Where("type = ?", bonusType)
	}
	var entries []models.BonusEntry
	if err := query.Order("level asc, id asc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// List 分页查询流水
func (r *GormBonusRepository) List(filter BonusListFilter) ([]models.BonusEntry, int64, error) {
	query := r.db.Model(&models.BonusEntry{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.BonusEntry
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ListRecentByUser 列出用户最近的流水
func (r *GormBonusRepository) ListRecentByUser(userID uint, limit int) ([]models.BonusEntry, error) {
	if userID == 0 {
		return []models.BonusEntry{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	var entries []models.BonusEntry
	if err := r.db.Where("user_id = ?", userID).
		Order("id desc").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// SumAmountByUserAndStatus 按状态汇总用户流水金额
func (r *GormBonusRepository) SumAmountByUserAndStatus(userID uint, bonusType string) (map[string]models.Money, error) {
	if userID == 0 {
		return map[string]models.Money{}, nil
	}
	type row struct {
		Status string
		Total  models.Money
	}
	query := r.db.Model(&models.BonusEntry{}).
		Select("status, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID)
	if bonusType != "" {
		query = query.Where("type = ?", bonusType)
	}
	var rows []row
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make(map[string]models.Money, len(rows))
	for _, item := range rows {
		result[item.Status] = item.Total
	}
	return result, nil
}
