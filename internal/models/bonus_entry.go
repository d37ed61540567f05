package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BonusEntry 奖金流水：佣金、提现等均以流水行记录。
// (order_id, user_id, level) 唯一索引保证同一订单不会重复结算。
type BonusEntry struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"not null;index;index:idx_bonus_order_user_level,unique" json:"user_id"`
	Type   string `gorm:"size:24;not null;index" json:"type"`
	Status string `gorm:"size:16;not null;default:pending;index" json:"status"`
	Amount Money  `gorm:"type:decimal(14,2);not null" json:"amount"`
	// OrderID 佣金来源工单，提现流水为空
	OrderID *uint `gorm:"index;index:idx_bonus_order_user_level,unique" json:"order_id"`
	// ReferralID 结算经由的推荐边
	ReferralID *uint `gorm:"index" json:"referral_id"`
	// Level 佣金层级（1-3），非佣金流水为 0
	Level          int             `gorm:"not null;default:0;index:idx_bonus_order_user_level,unique" json:"level"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0" json:"commission_rate"`
	Description    string          `gorm:"size:255" json:"description"`
	Reference      string          `gorm:"size:64;index" json:"reference"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
