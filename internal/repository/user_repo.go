// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/models"
)

// UserRepository 用户仓储
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 创建用户
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取用户
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByPhone 根据手机号获取用户
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByReferralCode 根据邀请码获取用户
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 更新用户
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// BindReferrer 绑定推荐人。
// 条件更新保证并发下只有第一次绑定生效，返回是否真正写入。
func (r *UserRepository) BindReferrer(ctx context.Context, userID, referrerID int64) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND referrer_id IS NULL", userID).
		Updates(map[string]interface{}{
			"referrer_id": referrerID,
			"bound_at":    now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddBalance 原子增加用户余额
func (r *UserRepository) AddBalance(ctx context.Context, userID int64, amount float64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount)).Error
}

// AddTotalPV 原子累加用户个人业绩
func (r *UserRepository) AddTotalPV(ctx context.Context, userID int64, pv float64) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("total_pv", gorm.Expr("total_pv + ?", pv)).Error
}

// GetIDsByReferrerIDs 批量查询下级用户 ID（按推荐人分层展开）
func (r *UserRepository) GetIDsByReferrerIDs(ctx context.Context, referrerIDs []int64) ([]int64, error) {
	if len(referrerIDs) == 0 {
		return nil, nil
	}
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referrer_id IN ?", referrerIDs).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// CountDirectReferrals 统计直推人数
func (r *UserRepository) CountDirectReferrals(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referrer_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Count 统计用户总数
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}

// CountWithReferrer 统计已绑定推荐人的用户数
func (r *UserRepository) CountWithReferrer(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referrer_id IS NOT NULL").
		Count(&count).Error
	return count, err
}

// ListRootIDs 查询所有根用户 ID（无推荐人）
func (r *UserRepository) ListRootIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("referrer_id IS NULL").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// List 获取用户列表
func (r *UserRepository) List(ctx context.Context, offset, limit int) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := r.db.WithContext(ctx).Model(&models.User{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("id DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
