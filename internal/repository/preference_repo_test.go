// Package repository 奖金偏好仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// setupPreferenceTestDB 创建奖金偏好测试数据库
func setupPreferenceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.UserBonusPreferences{})
	require.NoError(t, err)

	return db
}

func TestPreferenceRepository_CreateDefault(t *testing.T) {
	db := setupPreferenceTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDefault(ctx, 1))

	prefs, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBonusPercent, prefs.HealthPercent)
	assert.Equal(t, models.DefaultBonusPercent, prefs.TravelPercent)
	assert.Equal(t, models.DefaultBonusPercent, prefs.HomePercent)
	assert.Equal(t, models.DefaultBonusPercent, prefs.AutoPercent)
	assert.Equal(t, 100, prefs.Sum())
	assert.False(t, prefs.IsLocked)
}

func TestPreferenceRepository_CreateDefault_Idempotent(t *testing.T) {
	db := setupPreferenceTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDefault(ctx, 1))

	// 先自定义比例
	ok, err := repo.UpdatePercentages(ctx, 1, 40, 30, 20, 10)
	require.NoError(t, err)
	require.True(t, ok)

	// 并发或重复创建收敛为无操作，不覆盖已有配置
	require.NoError(t, repo.CreateDefault(ctx, 1))

	prefs, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, prefs.HealthPercent)

	var count int64
	db.Model(&models.UserBonusPreferences{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestPreferenceRepository_UpdatePercentages_Locked(t *testing.T) {
	db := setupPreferenceTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.CreateDefault(ctx, 1))
	require.NoError(t, repo.SetLocked(ctx, 1, true))

	ok, err := repo.UpdatePercentages(ctx, 1, 40, 30, 20, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	prefs, err := repo.GetByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultBonusPercent, prefs.HealthPercent)
	assert.True(t, prefs.IsLocked)

	// 解锁后恢复可修改
	require.NoError(t, repo.SetLocked(ctx, 1, false))
	ok, err = repo.UpdatePercentages(ctx, 1, 40, 30, 20, 10)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPreferenceRepository_GetByUserID_NotFound(t *testing.T) {
	db := setupPreferenceTestDB(t)
	repo := NewPreferenceRepository(db)
	ctx := context.Background()

	_, err := repo.GetByUserID(ctx, 42)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
