// Package referral 业绩聚合单元测试
package referral

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

// createPaidOrder 创建指定支付时间的已支付订单
func createPaidOrder(db *gorm.DB, t *testing.T, orderNo string, userID int64, amount float64, paidAt time.Time) *models.Order {
	order := &models.Order{
		OrderNo:       orderNo,
		UserID:        userID,
		TotalAmount:   amount,
		PaymentStatus: models.PaymentStatusPaid,
		PaidAt:        &paidAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func newVolumeService(db *gorm.DB) *VolumeService {
	userRepo := repository.NewUserRepository(db)
	return NewVolumeService(
		NewLineageService(userRepo),
		userRepo,
		repository.NewOrderRepository(db),
	)
}

func TestParsePeriod(t *testing.T) {
	for _, valid := range []string{"all_time", "month", "quarter", "year", ""} {
		_, err := ParsePeriod(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParsePeriod("week")
	assert.Error(t, err)
}

func TestPeriod_Window(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	t.Run("全量周期起点为零值", func(t *testing.T) {
		from, to := PeriodAllTime.Window(now)
		assert.True(t, from.IsZero())
		assert.Equal(t, now, to)
	})

	t.Run("当月", func(t *testing.T) {
		from, _ := PeriodMonth.Window(now)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	})

	t.Run("当季", func(t *testing.T) {
		from, _ := PeriodQuarter.Window(now)
		assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), from)
	})

	t.Run("当年", func(t *testing.T) {
		from, _ := PeriodYear.Window(now)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), from)
	})
}

func TestVolumeService_GroupVolume(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newVolumeService(db)
	ctx := context.Background()

	// A <- B <- C
	a := createUser(db, t, "GVA", nil)
	b := createUser(db, t, "GVB", &a.ID)
	c := createUser(db, t, "GVC", &b.ID)

	now := time.Now()
	createPaidOrder(db, t, "GV001", b.ID, 600, now)
	createPaidOrder(db, t, "GV002", c.ID, 400, now)
	// A 自己的订单不计入 A 的团队业绩
	createPaidOrder(db, t, "GV003", a.ID, 5000, now)
	// 待支付订单不计
	pending := &models.Order{OrderNo: "GV004", UserID: c.ID, TotalAmount: 999}
	require.NoError(t, db.Create(pending).Error)

	result, err := svc.GroupVolume(ctx, a.ID, PeriodAllTime)
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, result.TotalVolume, 0.001)
	assert.InDelta(t, 5.0, result.TotalPV, 0.001) // 1000 / 200
	assert.Equal(t, int64(2), result.ActiveParticipants)
	assert.Equal(t, int64(2), result.OrderCount)
	assert.Equal(t, 2, result.NetworkSize)
}

func TestVolumeService_GroupVolume_FanOut(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newVolumeService(db)
	ctx := context.Background()

	// 同一笔订单沿链向上对 A 和 B 的团队业绩各计一次（预期扇出）
	a := createUser(db, t, "FOA", nil)
	b := createUser(db, t, "FOB", &a.ID)
	c := createUser(db, t, "FOC", &b.ID)
	createPaidOrder(db, t, "FO001", c.ID, 2000, time.Now())

	forA, err := svc.GroupVolume(ctx, a.ID, PeriodAllTime)
	require.NoError(t, err)
	forB, err := svc.GroupVolume(ctx, b.ID, PeriodAllTime)
	require.NoError(t, err)

	assert.InDelta(t, 2000.0, forA.TotalVolume, 0.001)
	assert.InDelta(t, 2000.0, forB.TotalVolume, 0.001)
}

func TestVolumeService_GroupVolume_PeriodMonotonic(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newVolumeService(db)
	ctx := context.Background()

	a := createUser(db, t, "PMA", nil)
	b := createUser(db, t, "PMB", &a.ID)

	now := time.Now()
	createPaidOrder(db, t, "PM001", b.ID, 300, now)
	// 上一年的订单只进全量统计
	createPaidOrder(db, t, "PM002", b.ID, 700, now.AddDate(-1, 0, 0))

	allTime, err := svc.GroupVolume(ctx, a.ID, PeriodAllTime)
	require.NoError(t, err)
	month, err := svc.GroupVolume(ctx, a.ID, PeriodMonth)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, allTime.TotalVolume, month.TotalVolume)
	assert.InDelta(t, 1000.0, allTime.TotalVolume, 0.001)
	assert.InDelta(t, 300.0, month.TotalVolume, 0.001)
}

func TestVolumeService_GroupVolume_NoDescendants(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newVolumeService(db)
	ctx := context.Background()

	lone := createUser(db, t, "LONE", nil)

	result, err := svc.GroupVolume(ctx, lone.ID, PeriodAllTime)
	require.NoError(t, err)
	assert.Zero(t, result.TotalVolume)
	assert.Zero(t, result.NetworkSize)
}

func TestVolumeService_ConversionConstants(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newVolumeService(db)

	// 消费折算与兑付折算是两个独立常量，不互为倒数
	assert.InDelta(t, 200.0, models.CurrencyPerVolumePoint, 0.001)
	assert.InDelta(t, 100.0, models.CurrencyPerPayoutPoint, 0.001)
	assert.InDelta(t, 500.0, svc.PayoutValue(5), 0.001)
}

func TestVolumeService_PersonalVolume(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newVolumeService(db)
	ctx := context.Background()

	u := createUser(db, t, "PVU", nil)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Update("total_pv", 12.5).Error)

	pv, err := svc.PersonalVolume(ctx, u.ID)
	require.NoError(t, err)
	assert.InDelta(t, 12.5, pv, 0.001)
}
