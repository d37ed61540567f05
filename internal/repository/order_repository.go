package repository

import (
	"errors"
	"strings"

	"github.com/xiuda-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 维修工单数据访问接口
type OrderRepository interface {
	GetByID(id uint) (*models.RepairOrder, error)
	GetByOrderNo(orderNo string) (*models.RepairOrder, error)
	GetByOrderNoForUpdate(orderNo string) (*models.RepairOrder, error)
	Create(order *models.RepairOrder) error
	Update(order *models.RepairOrder) error
	List(filter OrderListFilter) ([]models.RepairOrder, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// OrderListFilter 工单查询条件
type OrderListFilter struct {
	ClientID uint
	MasterID uint
	Status   string
	Page     int
	PageSize int
}

// GormOrderRepository GORM 工单仓储实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建工单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByID 按ID获取工单
func (r *GormOrderRepository) GetByID(id uint) (*models.RepairOrder, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.RepairOrder
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按单号获取工单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.RepairOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.RepairOrder
	if err := r.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNoForUpdate 按单号加锁获取工单
func (r *GormOrderRepository) GetByOrderNoForUpdate(orderNo string) (*models.RepairOrder, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.RepairOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_no = ?", orderNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Create 创建工单
func (r *GormOrderRepository) Create(order *models.RepairOrder) error {
	return r.db.Create(order).Error
}

// Update 更新工单
func (r *GormOrderRepository) Update(order *models.RepairOrder) error {
	return r.db.Save(order).Error
}

// List 分页查询工单
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.RepairOrder, int64, error) {
	query := r.db.Model(&models.RepairOrder{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.MasterID != 0 {
		query = query.Where("master_id = ?", filter.MasterID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.RepairOrder
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
