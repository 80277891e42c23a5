// Package repository 提供数据访问层
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// MlmLevelRepository 等级配置仓储
type MlmLevelRepository struct {
	db *gorm.DB
}

// NewMlmLevelRepository 创建等级配置仓储
func NewMlmLevelRepository(db *gorm.DB) *MlmLevelRepository {
	return &MlmLevelRepository{db: db}
}

// GetByLevel 根据层级获取配置
func (r *MlmLevelRepository) GetByLevel(ctx context.Context, level int) (*models.MlmLevel, error) {
	var mlmLevel models.MlmLevel
	err := r.db.WithContext(ctx).Where("level = ?", level).First(&mlmLevel).Error
	if err != nil {
		return nil, err
	}
	return &mlmLevel, nil
}

// ListAll 获取全部层级配置（按层级升序）
func (r *MlmLevelRepository) ListAll(ctx context.Context) ([]*models.MlmLevel, error) {
	var levels []*models.MlmLevel
	err := r.db.WithContext(ctx).Order("level ASC").Find(&levels).Error
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// Upsert 按层级更新或插入配置
func (r *MlmLevelRepository) Upsert(ctx context.Context, level *models.MlmLevel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "level"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "percentage", "required_personal_volume", "required_group_volume",
		}),
	}).Create(level).Error
}

// SeedDefaults 播种默认的 16 级费率配置。
// 已存在的层级保持不变，只补齐缺失的。
func (r *MlmLevelRepository) SeedDefaults(ctx context.Context) error {
	defaults := DefaultMlmLevels()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "level"}},
		DoNothing: true,
	}).Create(&defaults).Error
}

// DefaultMlmLevels 默认层级配置：一至三级与固定模式对齐，其后逐级递减
func DefaultMlmLevels() []models.MlmLevel {
	rates := []float64{
		models.FixedLevel1Rate, models.FixedLevel2Rate, models.FixedLevel3Rate,
		1.0, 1.0, 0.5, 0.5, 0.5, 0.5, 0.5, 0.25, 0.25, 0.25, 0.25, 0.25, 0.25,
	}

	levels := make([]models.MlmLevel, 0, models.MaxReferralDepth)
	for i, rate := range rates {
		levels = append(levels, models.MlmLevel{
			Level:                  i + 1,
			Name:                   fmt.Sprintf("L%d", i+1),
			Percentage:             rate,
			RequiredPersonalVolume: 0,
			RequiredGroupVolume:    0,
		})
	}
	return levels
}
