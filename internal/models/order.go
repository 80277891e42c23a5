package models

import (
	"time"
)

// Order 订单模型
// 仅 payment_status = paid 的订单参与业绩与佣金计算；
// ReferralCodeUsed 首次成功应用后不可变更。
type Order struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo          string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID           int64      `gorm:"index;not null" json:"user_id"`
	TotalAmount      float64    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaymentStatus    int8       `gorm:"type:smallint;not null;default:0" json:"payment_status"`
	ReferralCodeUsed *string    `gorm:"type:varchar(20)" json:"referral_code_used,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	CancelledAt      *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// PaymentStatus 支付状态
const (
	PaymentStatusPending   = 0 // 待支付
	PaymentStatusPaid      = 1 // 已支付
	PaymentStatusCancelled = 2 // 已取消
	PaymentStatusExpired   = 3 // 已过期
)

// IsPaid 订单是否已支付
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}
