// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// CommissionRepository 佣金仓储
type CommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓储
func NewCommissionRepository(db *gorm.DB) *CommissionRepository {
	return &CommissionRepository{db: db}
}

// Create 创建佣金流水
func (r *CommissionRepository) Create(ctx context.Context, commission *models.ReferralCommission) error {
	return r.db.WithContext(ctx).Create(commission).Error
}

// GetByID 根据 ID 获取佣金流水
func (r *CommissionRepository) GetByID(ctx context.Context, id int64) (*models.ReferralCommission, error) {
	var commission models.ReferralCommission
	err := r.db.WithContext(ctx).First(&commission, id).Error
	if err != nil {
		return nil, err
	}
	return &commission, nil
}

// ExistsByOrderAndReferrer 检查同一订单对同一获益人是否已有流水
func (r *CommissionRepository) ExistsByOrderAndReferrer(ctx context.Context, orderID, referrerID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("order_id = ? AND referrer_id = ?", orderID, referrerID).
		Count(&count).Error
	return count > 0, err
}

// GetByOrderID 根据订单 ID 获取佣金流水列表
func (r *CommissionRepository) GetByOrderID(ctx context.Context, orderID int64) ([]*models.ReferralCommission, error) {
	var commissions []*models.ReferralCommission
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("referral_level ASC").
		Find(&commissions).Error
	if err != nil {
		return nil, err
	}
	return commissions, nil
}

// ListByReferrerID 根据获益人 ID 分页获取佣金流水
func (r *CommissionRepository) ListByReferrerID(ctx context.Context, referrerID int64, offset, limit int) ([]*models.ReferralCommission, int64, error) {
	var commissions []*models.ReferralCommission
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("referrer_id = ?", referrerID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&commissions).Error; err != nil {
		return nil, 0, err
	}

	return commissions, total, nil
}

// SumRewardByReferrerID 统计获益人累计佣金
func (r *CommissionRepository) SumRewardByReferrerID(ctx context.Context, referrerID int64) (float64, error) {
	var total *float64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).
		Where("referrer_id = ?", referrerID).
		Select("SUM(reward_earned)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// SumRewardSince 统计某时刻以来发放的佣金总额
func (r *CommissionRepository) SumRewardSince(ctx context.Context, since time.Time) (float64, error) {
	var total *float64
	query := r.db.WithContext(ctx).Model(&models.ReferralCommission{})
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := query.Select("SUM(reward_earned)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// Count 统计佣金流水总数
func (r *CommissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReferralCommission{}).Count(&count).Error
	return count, err
}
