package models

import (
	"time"

	"gorm.io/gorm"
)

// RepairOrder 维修工单，支付确认后触发佣金结算
type RepairOrder struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	OrderNo  string `gorm:"size:64;not null;uniqueIndex" json:"order_no"`
	ClientID uint   `gorm:"not null;index" json:"client_id"`
	// MasterID 接单师傅，派单前为空
	MasterID  *uint          `gorm:"index" json:"master_id"`
	Appliance string         `gorm:"size:64" json:"appliance"`
	Title     string         `gorm:"size:255" json:"title"`
	Amount    Money          `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status    string         `gorm:"size:24;not null;default:pending_payment;index" json:"status"`
	PaidAt    *time.Time     `json:"paid_at"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
