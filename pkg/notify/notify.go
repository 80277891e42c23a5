// Package notify 定义佣金事件的通知出口
package notify

import (
	"context"
	"time"
)

// CommissionEvent 佣金入账事件
type CommissionEvent struct {
	OrderID    int64     `json:"order_id"`
	OrderNo    string    `json:"order_no"`
	BuyerID    int64     `json:"buyer_id"`
	ReferrerID int64     `json:"referrer_id"`
	Level      int       `json:"level"`
	Rate       float64   `json:"rate"`
	Reward     float64   `json:"reward"`
	PostedAt   time.Time `json:"posted_at"`
}

// Notifier 通知出口接口。
// 引擎只投递逻辑事件，消息格式化与送达由实现方负责。
type Notifier interface {
	CommissionPosted(ctx context.Context, event *CommissionEvent) error
}

// NopNotifier 空实现，用于测试和未启用通知的部署
type NopNotifier struct{}

// NewNopNotifier 创建空通知器
func NewNopNotifier() *NopNotifier {
	return &NopNotifier{}
}

// CommissionPosted 丢弃事件
func (n *NopNotifier) CommissionPosted(ctx context.Context, event *CommissionEvent) error {
	return nil
}
