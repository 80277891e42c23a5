// Package repository 提供数据访问层
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// PreferenceRepository 奖金偏好仓储
type PreferenceRepository struct {
	db *gorm.DB
}

// NewPreferenceRepository 创建奖金偏好仓储
func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// GetByUserID 根据用户 ID 获取偏好
func (r *PreferenceRepository) GetByUserID(ctx context.Context, userID int64) (*models.UserBonusPreferences, error) {
	var prefs models.UserBonusPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err != nil {
		return nil, err
	}
	return &prefs, nil
}

// CreateDefault 创建默认均分偏好。
// user_id 唯一索引加 DoNothing 保证并发创建收敛为一行，调用方冲突后应回读。
func (r *PreferenceRepository) CreateDefault(ctx context.Context, userID int64) error {
	prefs := models.UserBonusPreferences{
		UserID:        userID,
		HealthPercent: models.DefaultBonusPercent,
		TravelPercent: models.DefaultBonusPercent,
		HomePercent:   models.DefaultBonusPercent,
		AutoPercent:   models.DefaultBonusPercent,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&prefs).Error
}

// UpdatePercentages 更新未锁定偏好的四项比例，返回是否真正写入
func (r *PreferenceRepository) UpdatePercentages(ctx context.Context, userID int64, health, travel, home, auto int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.UserBonusPreferences{}).
		Where("user_id = ? AND is_locked = ?", userID, false).
		Updates(map[string]interface{}{
			"health_percent": health,
			"travel_percent": travel,
			"home_percent":   home,
			"auto_percent":   auto,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SetLocked 设置锁定状态
func (r *PreferenceRepository) SetLocked(ctx context.Context, userID int64, locked bool) error {
	return r.db.WithContext(ctx).Model(&models.UserBonusPreferences{}).
		Where("user_id = ?", userID).
		Update("is_locked", locked).Error
}
