// Package referral 奖金偏好单元测试
package referral

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

func newPreferenceService(t *testing.T) (*PreferenceService, context.Context) {
	db := setupReferralTestDB(t)
	return NewPreferenceService(repository.NewPreferenceRepository(db)), context.Background()
}

func TestPreferenceService_GetOrCreate(t *testing.T) {
	svc, ctx := newPreferenceService(t)

	prefs, err := svc.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBonusPercent, prefs.HealthPercent)
	assert.Equal(t, 100, prefs.Sum())
	assert.False(t, prefs.IsLocked)

	// 二次读取返回同一行
	again, err := svc.GetOrCreate(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, prefs.ID, again.ID)
}

func TestPreferenceService_Update(t *testing.T) {
	svc, ctx := newPreferenceService(t)

	t.Run("合法比例", func(t *testing.T) {
		prefs, err := svc.Update(ctx, 1, &UpdateRequest{
			HealthPercent: 40, TravelPercent: 30, HomePercent: 20, AutoPercent: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, 40, prefs.HealthPercent)
		assert.Equal(t, 10, prefs.AutoPercent)
	})

	t.Run("总和不为100", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, &UpdateRequest{
			HealthPercent: 40, TravelPercent: 30, HomePercent: 20, AutoPercent: 20,
		})
		assert.ErrorIs(t, err, errors.ErrPercentagesInvalid)
	})

	t.Run("单项超出范围", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, &UpdateRequest{
			HealthPercent: 120, TravelPercent: -20, HomePercent: 0, AutoPercent: 0,
		})
		assert.ErrorIs(t, err, errors.ErrPercentagesInvalid)
	})

	t.Run("边界值全给单项", func(t *testing.T) {
		prefs, err := svc.Update(ctx, 1, &UpdateRequest{
			HealthPercent: 100, TravelPercent: 0, HomePercent: 0, AutoPercent: 0,
		})
		require.NoError(t, err)
		assert.Equal(t, 100, prefs.HealthPercent)
	})
}

func TestPreferenceService_Update_Locked(t *testing.T) {
	svc, ctx := newPreferenceService(t)

	_, err := svc.SetLock(ctx, 1, true)
	require.NoError(t, err)

	_, err = svc.Update(ctx, 1, &UpdateRequest{
		HealthPercent: 40, TravelPercent: 30, HomePercent: 20, AutoPercent: 10,
	})
	assert.ErrorIs(t, err, errors.ErrPreferencesLocked)

	// 解锁后恢复
	_, err = svc.SetLock(ctx, 1, false)
	require.NoError(t, err)

	prefs, err := svc.Update(ctx, 1, &UpdateRequest{
		HealthPercent: 40, TravelPercent: 30, HomePercent: 20, AutoPercent: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, prefs.HealthPercent)
}

func TestPreferenceService_SetLock_CreatesRow(t *testing.T) {
	svc, ctx := newPreferenceService(t)

	// 对尚无偏好行的用户加锁也要生效
	prefs, err := svc.SetLock(ctx, 7, true)
	require.NoError(t, err)
	assert.True(t, prefs.IsLocked)
	assert.Equal(t, models.DefaultBonusPercent, prefs.HealthPercent)
}

func TestPreferenceService_Allocate(t *testing.T) {
	svc, ctx := newPreferenceService(t)

	t.Run("默认均分", func(t *testing.T) {
		alloc, err := svc.Allocate(ctx, 1, 100)
		require.NoError(t, err)
		assert.InDelta(t, 25.0, alloc.Health, 0.001)
		assert.InDelta(t, 25.0, alloc.Travel, 0.001)
		assert.InDelta(t, 25.0, alloc.Home, 0.001)
		assert.InDelta(t, 25.0, alloc.Auto, 0.001)
	})

	t.Run("拆分总和与原金额一致", func(t *testing.T) {
		_, err := svc.Update(ctx, 1, &UpdateRequest{
			HealthPercent: 33, TravelPercent: 33, HomePercent: 33, AutoPercent: 1,
		})
		require.NoError(t, err)

		alloc, err := svc.Allocate(ctx, 1, 10.01)
		require.NoError(t, err)
		total := alloc.Health + alloc.Travel + alloc.Home + alloc.Auto
		assert.InDelta(t, 10.01, total, 0.0001)
	})
}
