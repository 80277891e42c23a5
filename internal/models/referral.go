package models

import (
	"time"
)

// 推荐网络常量
const (
	// MaxReferralDepth 推荐链的最大层数，向上追溯与向下统计共用
	MaxReferralDepth = 16

	// FixedCommissionLevels 固定费率模式下参与分佣的层数
	FixedCommissionLevels = 3
)

// 固定模式各层佣金比例（百分比）
const (
	FixedLevel1Rate = 20.0 // 一级 20%
	FixedLevel2Rate = 5.0  // 二级 5%
	FixedLevel3Rate = 1.0  // 三级 1%
)

// 货币与 PV 的换算常量。
// 两个方向的换算率不同，不能由一个推导出另一个。
const (
	// CurrencyPerVolumePoint 消费额折算业绩：每 1 PV 对应 200 货币单位
	CurrencyPerVolumePoint = 200.0

	// CurrencyPerPayoutPoint 奖金发放折算：每 1 PV 兑付 100 货币单位
	CurrencyPerPayoutPoint = 100.0
)

// ReferralCommission 推荐佣金流水
// (order_id, referrer_id) 上的唯一索引承载幂等保证：同一订单对同一获益人
// 至多产生一条流水，重复投递按无操作处理。
type ReferralCommission struct {
	ID             int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64     `gorm:"not null;uniqueIndex:uniq_order_referrer,priority:1" json:"order_id"`
	UserID         int64     `gorm:"index;not null" json:"user_id"`
	ReferrerID     int64     `gorm:"not null;uniqueIndex:uniq_order_referrer,priority:2;index" json:"referrer_id"`
	ReferralLevel  int       `gorm:"not null" json:"referral_level"`
	CommissionRate float64   `gorm:"type:decimal(5,2);not null" json:"commission_rate"`
	RewardEarned   float64   `gorm:"type:decimal(12,2);not null" json:"reward_earned"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Order    *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Referrer *User  `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	Buyer    *User  `gorm:"foreignKey:UserID" json:"buyer,omitempty"`
}

// TableName 表名
func (ReferralCommission) TableName() string {
	return "referral_commissions"
}

// MlmLevel 等级配置
// 初始化时播种一次，引擎只读；门槛值仅作资格参考，引擎本身不强制。
type MlmLevel struct {
	ID                     int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Level                  int       `gorm:"uniqueIndex;not null" json:"level"`
	Name                   string    `gorm:"type:varchar(50);not null" json:"name"`
	Percentage             float64   `gorm:"type:decimal(5,2);not null" json:"percentage"`
	RequiredPersonalVolume float64   `gorm:"type:decimal(12,2);not null;default:0" json:"required_personal_volume"`
	RequiredGroupVolume    float64   `gorm:"type:decimal(12,2);not null;default:0" json:"required_group_volume"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (MlmLevel) TableName() string {
	return "mlm_levels"
}
