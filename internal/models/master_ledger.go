package models

import (
	"time"
)

// MasterLedger 师傅台账：每位师傅一行，佣金与提现的唯一事实来源。
// 不变式：AvailableBalance = TotalCommissions - WithdrawnAmount。
type MasterLedger struct {
	ID     uint `gorm:"primarykey" json:"id"`
	UserID uint `gorm:"not null;uniqueIndex" json:"user_id"`
	// ReferralsCount 直接下级人数
	ReferralsCount int `gorm:"not null;default:0" json:"referrals_count"`
	// TotalEarnings 审核通过后已实现的累计收益
	TotalEarnings Money `gorm:"type:decimal(14,2);not null;default:0" json:"total_earnings"`
	// TotalCommissions 创建佣金时即记账的累计佣金
	TotalCommissions Money     `gorm:"type:decimal(14,2);not null;default:0" json:"total_commissions"`
	AvailableBalance Money     `gorm:"type:decimal(14,2);not null;default:0" json:"available_balance"`
	WithdrawnAmount  Money     `gorm:"type:decimal(14,2);not null;default:0" json:"withdrawn_amount"`
	Specialization   string    `gorm:"size:64" json:"specialization"`
	Rating           float64   `gorm:"not null;default:0" json:"rating"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
