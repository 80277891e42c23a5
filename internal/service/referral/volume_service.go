// Package referral 推荐网络核心服务
package referral

import (
	"context"
	"time"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

// Period 统计周期
type Period string

// 支持的统计周期
const (
	PeriodAllTime Period = "all_time"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// ParsePeriod 解析统计周期，空值按全量处理
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodAllTime, PeriodMonth, PeriodQuarter, PeriodYear:
		return Period(s), nil
	case "":
		return PeriodAllTime, nil
	default:
		return "", errors.ErrInvalidParams.WithMessage("无效的统计周期")
	}
}

// Window 解析为具体的 [start, now) 时间窗口；全量周期返回零值起点
func (p Period) Window(now time.Time) (time.Time, time.Time) {
	switch p {
	case PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start, now
	case PeriodQuarter:
		quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		start := time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, now.Location())
		return start, now
	case PeriodYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return start, now
	default:
		return time.Time{}, now
	}
}

// GroupVolumeResult 团队业绩统计结果
type GroupVolumeResult struct {
	RootUserID         int64   `json:"root_user_id"`
	Period             Period  `json:"period"`
	TotalVolume        float64 `json:"total_volume"`        // 窗口内已支付订单总额（货币）
	TotalPV            float64 `json:"total_pv"`            // 折算后的团队业绩点数
	ActiveParticipants int64   `json:"active_participants"` // 窗口内有成交的去重买家数
	OrderCount         int64   `json:"order_count"`
	NetworkSize        int     `json:"network_size"` // 下级网络总人数
}

// VolumeService 业绩聚合服务
type VolumeService struct {
	lineage   *LineageService
	userRepo  *repository.UserRepository
	orderRepo *repository.OrderRepository
	now       func() time.Time
}

// NewVolumeService 创建业绩聚合服务
func NewVolumeService(lineage *LineageService, userRepo *repository.UserRepository, orderRepo *repository.OrderRepository) *VolumeService {
	return &VolumeService{
		lineage:   lineage,
		userRepo:  userRepo,
		orderRepo: orderRepo,
		now:       time.Now,
	}
}

// GroupVolume 统计用户下级网络在周期内的团队业绩。
// 根用户自身的订单不计入团队业绩；同一订单沿推荐链向上
// 对多个祖先的团队业绩各计一次，属预期的扇出语义。
func (s *VolumeService) GroupVolume(ctx context.Context, rootUserID int64, period Period) (*GroupVolumeResult, error) {
	descendants, err := s.lineage.DescendantSet(ctx, rootUserID, models.MaxReferralDepth)
	if err != nil {
		return nil, err
	}

	result := &GroupVolumeResult{
		RootUserID:  rootUserID,
		Period:      period,
		NetworkSize: len(descendants),
	}
	if len(descendants) == 0 {
		return result, nil
	}

	from, to := period.Window(s.now())
	stats, err := s.orderRepo.PaidStatsByUserIDs(ctx, descendants, from, to)
	if err != nil {
		return nil, err
	}

	result.TotalVolume = stats.TotalAmount
	result.TotalPV = stats.TotalAmount / models.CurrencyPerVolumePoint
	result.ActiveParticipants = stats.DistinctBuyers
	result.OrderCount = stats.OrderCount
	return result, nil
}

// PayoutValue 把业绩点数折算为奖金兑付金额。
// 兑付费率与消费折算费率是两个独立常量，不互为倒数。
func (s *VolumeService) PayoutValue(pv float64) float64 {
	return pv * models.CurrencyPerPayoutPoint
}

// PersonalVolume 读取用户累计的个人业绩
func (s *VolumeService) PersonalVolume(ctx context.Context, userID int64) (float64, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.TotalPV, nil
}
