// Package referral 佣金引擎单元测试
package referral

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/pkg/notify"
)

// recordingNotifier 记录事件的测试通知器
type recordingNotifier struct {
	mu     sync.Mutex
	events []*notify.CommissionEvent
}

func (n *recordingNotifier) CommissionPosted(ctx context.Context, event *notify.CommissionEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func newCommissionService(db *gorm.DB, notifier notify.Notifier, mode string, maxLevels int) *CommissionService {
	userRepo := repository.NewUserRepository(db)
	return NewCommissionService(
		db,
		NewLineageService(userRepo),
		userRepo,
		repository.NewOrderRepository(db),
		repository.NewCommissionRepository(db),
		repository.NewMlmLevelRepository(db),
		notifier,
		mode,
		maxLevels,
	)
}

func TestCommissionService_PostCommissions_Fixed(t *testing.T) {
	db := setupReferralTestDB(t)
	notifier := &recordingNotifier{}
	svc := newCommissionService(db, notifier, ModeFixed, 0)
	ctx := context.Background()

	// A <- B <- C，C 下单 2000
	a := createUser(db, t, "FXA", nil)
	b := createUser(db, t, "FXB", &a.ID)
	c := createUser(db, t, "FXC", &b.ID)
	order := createPaidOrder(db, t, "FX001", c.ID, 2000, time.Now())

	posted, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, posted, 2)

	// B 一级 20% = 400
	assert.Equal(t, b.ID, posted[0].ReferrerID)
	assert.Equal(t, 1, posted[0].ReferralLevel)
	assert.InDelta(t, 20.0, posted[0].CommissionRate, 0.001)
	assert.InDelta(t, 400.0, posted[0].RewardEarned, 0.001)

	// A 二级 5% = 100
	assert.Equal(t, a.ID, posted[1].ReferrerID)
	assert.Equal(t, 2, posted[1].ReferralLevel)
	assert.InDelta(t, 5.0, posted[1].CommissionRate, 0.001)
	assert.InDelta(t, 100.0, posted[1].RewardEarned, 0.001)

	// 余额原子累加
	var bUser, cUser models.User
	db.First(&bUser, b.ID)
	db.First(&cUser, c.ID)
	assert.InDelta(t, 400.0, bUser.Balance, 0.001)
	assert.Zero(t, cUser.Balance) // 买家自己没有流水

	// 每笔入账各发一条通知
	assert.Len(t, notifier.events, 2)
	assert.Equal(t, order.ID, notifier.events[0].OrderID)
}

func TestCommissionService_PostCommissions_Idempotent(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeFixed, 0)
	ctx := context.Background()

	a := createUser(db, t, "IDA", nil)
	b := createUser(db, t, "IDB", &a.ID)
	order := createPaidOrder(db, t, "ID001", b.ID, 1000, time.Now())

	first, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// 重复调用收敛为无操作
	second, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, second)

	var count int64
	db.Model(&models.ReferralCommission{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	// 余额只累加一次
	var aUser models.User
	db.First(&aUser, a.ID)
	assert.InDelta(t, 200.0, aUser.Balance, 0.001)
}

func TestCommissionService_PostCommissions_NotPaid(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeFixed, 0)
	ctx := context.Background()

	a := createUser(db, t, "NPA", nil)
	b := createUser(db, t, "NPB", &a.ID)

	order := &models.Order{OrderNo: "NP001", UserID: b.ID, TotalAmount: 1000}
	require.NoError(t, db.Create(order).Error)

	_, err := svc.PostCommissions(ctx, order.ID)
	assert.ErrorIs(t, err, errors.ErrOrderNotPaid)

	var count int64
	db.Model(&models.ReferralCommission{}).Count(&count)
	assert.Zero(t, count)
}

func TestCommissionService_PostCommissions_NoReferrer(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeFixed, 0)
	ctx := context.Background()

	lone := createUser(db, t, "NRA", nil)
	order := createPaidOrder(db, t, "NR001", lone.ID, 1000, time.Now())

	posted, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, posted)
}

func TestCommissionService_PostCommissions_TableMode(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeTable, models.MaxReferralDepth)
	ctx := context.Background()

	mlmRepo := repository.NewMlmLevelRepository(db)
	require.NoError(t, mlmRepo.SeedDefaults(ctx))

	// 5 层链，表驱动模式下第 4、5 层也参与分佣
	users := createChain(db, t, "TBL", 5)
	buyer := users[4]
	order := createPaidOrder(db, t, "TBL001", buyer.ID, 2000, time.Now())

	posted, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, posted, 4)

	assert.InDelta(t, 400.0, posted[0].RewardEarned, 0.001) // L1 20%
	assert.InDelta(t, 100.0, posted[1].RewardEarned, 0.001) // L2 5%
	assert.InDelta(t, 20.0, posted[2].RewardEarned, 0.001)  // L3 1%
	assert.InDelta(t, 20.0, posted[3].RewardEarned, 0.001)  // L4 1%
}

func TestCommissionService_PostCommissions_SelfLoopGuard(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeFixed, 0)
	ctx := context.Background()

	// 脏数据：买家是自己的上级
	u := createUser(db, t, "SLG", nil)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Update("referrer_id", u.ID).Error)
	order := createPaidOrder(db, t, "SLG001", u.ID, 1000, time.Now())

	posted, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, posted)

	var uUser models.User
	db.First(&uUser, u.ID)
	assert.Zero(t, uUser.Balance)
}

func TestCommissionService_PostCommissions_Rounding(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeFixed, 0)
	ctx := context.Background()

	a := createUser(db, t, "RDA", nil)
	b := createUser(db, t, "RDB", &a.ID)
	// 999.99 * 20% = 199.998 -> 200.00
	order := createPaidOrder(db, t, "RD001", b.ID, 999.99, time.Now())

	posted, err := svc.PostCommissions(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, posted, 1)
	assert.InDelta(t, 200.0, posted[0].RewardEarned, 0.0001)
}

func TestCommissionService_ReferrerCommissions(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := newCommissionService(db, nil, ModeFixed, 0)
	ctx := context.Background()

	a := createUser(db, t, "RCA", nil)
	b := createUser(db, t, "RCB", &a.ID)

	for i, amount := range []float64{1000, 500} {
		order := createPaidOrder(db, t, "RC00"+string(rune('1'+i)), b.ID, amount, time.Now())
		_, err := svc.PostCommissions(ctx, order.ID)
		require.NoError(t, err)
	}

	list, total, sum, err := svc.ReferrerCommissions(ctx, a.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)
	assert.InDelta(t, 300.0, sum, 0.001) // 200 + 100
}
