// Package repository 订单仓储单元测试
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// setupOrderTestDB 创建订单测试数据库
func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.User{}, &models.Order{})
	require.NoError(t, err)

	return db
}

// newTestOrder 创建测试订单
func newTestOrder(db *gorm.DB, t *testing.T, orderNo string, userID int64, amount float64) *models.Order {
	order := &models.Order{
		OrderNo:       orderNo,
		UserID:        userID,
		TotalAmount:   amount,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := newTestOrder(db, t, "ORD001", 1, 1000)

	t.Run("待支付订单可标记", func(t *testing.T) {
		paidAt := time.Now()
		changed, err := repo.MarkPaid(ctx, order.ID, paidAt)
		require.NoError(t, err)
		assert.True(t, changed)

		found, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, int8(models.PaymentStatusPaid), found.PaymentStatus)
		assert.NotNil(t, found.PaidAt)
	})

	t.Run("重复标记无操作", func(t *testing.T) {
		changed, err := repo.MarkPaid(ctx, order.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("已取消订单不可标记", func(t *testing.T) {
		cancelled := newTestOrder(db, t, "ORD002", 1, 500)
		ok, err := repo.Cancel(ctx, cancelled.ID)
		require.NoError(t, err)
		require.True(t, ok)

		changed, err := repo.MarkPaid(ctx, cancelled.ID, time.Now())
		require.NoError(t, err)
		assert.False(t, changed)
	})
}

func TestOrderRepository_SumPaidAmountByUserIDs(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	now := time.Now()

	// 用户 1：两单已支付，一单待支付
	o1 := newTestOrder(db, t, "SUM001", 1, 600)
	o2 := newTestOrder(db, t, "SUM002", 1, 400)
	newTestOrder(db, t, "SUM003", 1, 999)
	// 用户 2：一单已支付
	o3 := newTestOrder(db, t, "SUM004", 2, 200)

	for _, o := range []*models.Order{o1, o2, o3} {
		_, err := repo.MarkPaid(ctx, o.ID, now)
		require.NoError(t, err)
	}

	t.Run("仅统计已支付订单", func(t *testing.T) {
		total, err := repo.SumPaidAmountByUserIDs(ctx, []int64{1}, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.InDelta(t, 1000.0, total, 0.001)
	})

	t.Run("多用户合并统计", func(t *testing.T) {
		total, err := repo.SumPaidAmountByUserIDs(ctx, []int64{1, 2}, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.InDelta(t, 1200.0, total, 0.001)
	})

	t.Run("时间窗口过滤", func(t *testing.T) {
		total, err := repo.SumPaidAmountByUserIDs(ctx, []int64{1, 2}, now.Add(time.Hour), time.Time{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("空用户列表返回零", func(t *testing.T) {
		total, err := repo.SumPaidAmountByUserIDs(ctx, nil, time.Time{}, time.Time{})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
