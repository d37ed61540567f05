package models

import (
	"time"

	"gorm.io/gorm"
)

// User 平台用户：客户 / 师傅 / 管理员
type User struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `gorm:"size:64;not null" json:"name"`
	Email        string `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	Phone        string `gorm:"size:32" json:"phone"`
	Role         string `gorm:"size:16;not null;default:client;index" json:"role"`
	// ReferrerID 推荐人（上级），根节点为空
	ReferrerID   *uint          `gorm:"index" json:"referrer_id"`
	ReferralCode string         `gorm:"size:32;uniqueIndex" json:"referral_code"`
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsMaster 是否为师傅角色
func (u *User) IsMaster() bool {
	return u.Role == "master"
}
