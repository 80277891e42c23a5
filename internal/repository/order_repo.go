// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// OrderRepository 订单仓储
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create 创建订单
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// GetByID 根据 ID 获取订单
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单号获取订单
func (r *OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid 标记订单已支付。
// 条件更新保证只有待支付订单能进入已支付状态，返回是否真正变更。
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID int64, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusPaid,
			"paid_at":        paidAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Cancel 取消订单
func (r *OrderRepository) Cancel(ctx context.Context, orderID int64) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusPending).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusCancelled,
			"cancelled_at":   now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SumPaidAmountByUserIDs 统计一批用户在时间窗口内的已支付订单总额。
// from/to 为零值时表示不限制对应边界。
func (r *OrderRepository) SumPaidAmountByUserIDs(ctx context.Context, userIDs []int64, from, to time.Time) (float64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id IN ? AND payment_status = ?", userIDs, models.PaymentStatusPaid)
	if !from.IsZero() {
		query = query.Where("paid_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("paid_at < ?", to)
	}

	var total *float64
	err := query.Select("SUM(total_amount)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// PaidOrderStats 已支付订单聚合结果
type PaidOrderStats struct {
	TotalAmount    float64
	OrderCount     int64
	DistinctBuyers int64
}

// PaidStatsByUserIDs 聚合一批用户在时间窗口内的已支付订单：
// 总额、订单数、去重买家数。
func (r *OrderRepository) PaidStatsByUserIDs(ctx context.Context, userIDs []int64, from, to time.Time) (*PaidOrderStats, error) {
	stats := &PaidOrderStats{}
	if len(userIDs) == 0 {
		return stats, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("user_id IN ? AND payment_status = ?", userIDs, models.PaymentStatusPaid)
	if !from.IsZero() {
		query = query.Where("paid_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("paid_at < ?", to)
	}

	row := struct {
		Total  *float64
		Orders int64
		Buyers int64
	}{}
	err := query.
		Select("SUM(total_amount) AS total, COUNT(*) AS orders, COUNT(DISTINCT user_id) AS buyers").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	if row.Total != nil {
		stats.TotalAmount = *row.Total
	}
	stats.OrderCount = row.Orders
	stats.DistinctBuyers = row.Buyers
	return stats, nil
}

// ListByUserID 获取用户订单列表
func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64, offset, limit int) ([]*models.Order, int64, error) {
	var orders []*models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// ExpireStalePending 批量把超时未支付的订单置为已过期，返回变更行数
func (r *OrderRepository) ExpireStalePending(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("payment_status = ? AND created_at < ?", models.PaymentStatusPending, before).
		Update("payment_status", models.PaymentStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountPaid 统计已支付订单数
func (r *OrderRepository) CountPaid(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("payment_status = ?", models.PaymentStatusPaid).
		Count(&count).Error
	return count, err
}
