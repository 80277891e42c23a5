// Package referral 推荐网络核心服务
package referral

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

// PreferenceService 奖金分配偏好服务
type PreferenceService struct {
	prefRepo *repository.PreferenceRepository
}

// NewPreferenceService 创建奖金分配偏好服务
func NewPreferenceService(prefRepo *repository.PreferenceRepository) *PreferenceService {
	return &PreferenceService{prefRepo: prefRepo}
}

// GetOrCreate 获取用户偏好，首次读取惰性创建默认均分配置。
// 并发首读靠 user_id 唯一索引收敛：冲突后回读而不是报错。
func (s *PreferenceService) GetOrCreate(ctx context.Context, userID int64) (*models.UserBonusPreferences, error) {
	prefs, err := s.prefRepo.GetByUserID(ctx, userID)
	if err == nil {
		return prefs, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.prefRepo.CreateDefault(ctx, userID); err != nil {
		return nil, err
	}
	return s.prefRepo.GetByUserID(ctx, userID)
}

// UpdateRequest 偏好更新请求
type UpdateRequest struct {
	HealthPercent int `json:"health_percent" binding:"min=0,max=100"`
	TravelPercent int `json:"travel_percent" binding:"min=0,max=100"`
	HomePercent   int `json:"home_percent" binding:"min=0,max=100"`
	AutoPercent   int `json:"auto_percent" binding:"min=0,max=100"`
}

// Update 更新四项分配比例。
// 每项须在 [0,100] 内且总和恰好为 100；锁定状态下拒绝修改。
func (s *PreferenceService) Update(ctx context.Context, userID int64, req *UpdateRequest) (*models.UserBonusPreferences, error) {
	for _, v := range []int{req.HealthPercent, req.TravelPercent, req.HomePercent, req.AutoPercent} {
		if v < 0 || v > 100 {
			return nil, errors.ErrPercentagesInvalid
		}
	}
	if req.HealthPercent+req.TravelPercent+req.HomePercent+req.AutoPercent != 100 {
		return nil, errors.ErrPercentagesInvalid
	}

	prefs, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if prefs.IsLocked {
		return nil, errors.ErrPreferencesLocked
	}

	updated, err := s.prefRepo.UpdatePercentages(ctx, userID,
		req.HealthPercent, req.TravelPercent, req.HomePercent, req.AutoPercent)
	if err != nil {
		return nil, err
	}
	if !updated {
		// 读检查与写入之间被并发锁定
		return nil, errors.ErrPreferencesLocked
	}

	return s.prefRepo.GetByUserID(ctx, userID)
}

// SetLock 设置偏好锁定状态（管理员能力）
func (s *PreferenceService) SetLock(ctx context.Context, userID int64, locked bool) (*models.UserBonusPreferences, error) {
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.prefRepo.SetLocked(ctx, userID, locked); err != nil {
		return nil, err
	}

	logger.Info("奖金偏好锁定状态变更",
		logger.UserID(userID),
		logger.Bool("locked", locked),
	)
	return s.prefRepo.GetByUserID(ctx, userID)
}

// BonusAllocation 按偏好拆分后的各类别金额
type BonusAllocation struct {
	Health float64 `json:"health"`
	Travel float64 `json:"travel"`
	Home   float64 `json:"home"`
	Auto   float64 `json:"auto"`
}

// Allocate 把一笔奖金按用户偏好拆分到四个类别。
// 前三项各自四舍五入到分，最后一项取余额，保证总和不变。
func (s *PreferenceService) Allocate(ctx context.Context, userID int64, amount float64) (*BonusAllocation, error) {
	prefs, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	health := roundMoney(amount * float64(prefs.HealthPercent) / 100)
	travel := roundMoney(amount * float64(prefs.TravelPercent) / 100)
	home := roundMoney(amount * float64(prefs.HomePercent) / 100)
	auto := roundMoney(amount - health - travel - home)

	return &BonusAllocation{
		Health: health,
		Travel: travel,
		Home:   home,
		Auto:   auto,
	}, nil
}
