// Package models 定义数据模型
package models

import (
	"time"
)

// User 用户模型
// ReferrerID 指向唯一的上级推荐人，绑定后不可变更；推荐关系构成森林，
// 任何用户在任意深度都不得是自己的祖先。
type User struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone        *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	Nickname     string     `gorm:"type:varchar(50);not null;default:''" json:"nickname"`
	ReferrerID   *int64     `gorm:"index" json:"referrer_id,omitempty"`
	ReferralCode string     `gorm:"type:varchar(20);uniqueIndex;not null" json:"referral_code"`
	Balance      float64    `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	TotalPV      float64    `gorm:"column:total_pv;type:decimal(12,2);not null;default:0" json:"total_pv"`
	Status       int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	BoundAt      *time.Time `json:"bound_at,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Referrer *User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// UserBonusPreferences 用户奖金分配偏好
// 四个类别的百分比之和必须为 100；is_locked 为 true 时用户不可修改。
type UserBonusPreferences struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	HealthPercent int       `gorm:"not null;default:25" json:"health_percent"`
	TravelPercent int       `gorm:"not null;default:25" json:"travel_percent"`
	HomePercent   int       `gorm:"not null;default:25" json:"home_percent"`
	AutoPercent   int       `gorm:"not null;default:25" json:"auto_percent"`
	IsLocked      bool      `gorm:"not null;default:false" json:"is_locked"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (UserBonusPreferences) TableName() string {
	return "user_bonus_preferences"
}

// DefaultBonusPercent 奖金偏好默认均分比例
const DefaultBonusPercent = 25

// Sum 四个类别百分比之和
func (p *UserBonusPreferences) Sum() int {
	return p.HealthPercent + p.TravelPercent + p.HomePercent + p.AutoPercent
}
