package models

import (
	"time"
)

// Referral 推荐关系边（推荐人 -> 被推荐人），携带该边的累计业绩
type Referral struct {
	ID         uint `gorm:"primarykey" json:"id"`
	ReferrerID uint `gorm:"not null;index;index:idx_referral_edge,unique" json:"referrer_id"`
	ReferredID uint `gorm:"not null;index;index:idx_referral_edge,unique" json:"referred_id"`
	// TotalEarned 经由该边结算给推荐人的累计佣金
	TotalEarned Money     `gorm:"type:decimal(14,2);not null;default:0" json:"total_earned"`
	OrdersCount int       `gorm:"not null;default:0" json:"orders_count"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
