// Package referral 推荐网络核心服务
package referral

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/pkg/notify"
)

// 分佣模式
const (
	ModeFixed = "fixed" // 固定三级费率
	ModeTable = "table" // 等级表费率，最多 16 级
)

// CommissionService 佣金引擎。
// 订单进入已支付状态时调用一次；(order_id, referrer_id) 唯一索引
// 保证重复调用收敛为无操作。
type CommissionService struct {
	db             *gorm.DB
	lineage        *LineageService
	userRepo       *repository.UserRepository
	orderRepo      *repository.OrderRepository
	commissionRepo *repository.CommissionRepository
	mlmLevelRepo   *repository.MlmLevelRepository
	notifier       notify.Notifier
	mode           string
	maxLevels      int
}

// NewCommissionService 创建佣金引擎
func NewCommissionService(
	db *gorm.DB,
	lineage *LineageService,
	userRepo *repository.UserRepository,
	orderRepo *repository.OrderRepository,
	commissionRepo *repository.CommissionRepository,
	mlmLevelRepo *repository.MlmLevelRepository,
	notifier notify.Notifier,
	mode string,
	maxLevels int,
) *CommissionService {
	if mode != ModeTable {
		mode = ModeFixed
	}
	if maxLevels <= 0 || maxLevels > models.MaxReferralDepth {
		maxLevels = models.MaxReferralDepth
	}
	if notifier == nil {
		notifier = notify.NewNopNotifier()
	}
	return &CommissionService{
		db:             db,
		lineage:        lineage,
		userRepo:       userRepo,
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		mlmLevelRepo:   mlmLevelRepo,
		notifier:       notifier,
		mode:           mode,
		maxLevels:      maxLevels,
	}
}

// PostCommissions 为一笔已支付订单沿祖先链发放佣金。
// 每个 (订单, 祖先) 对是独立的工作单元：单个祖先发放失败只记录
// 日志并继续，不回滚其他祖先已入账的佣金。
func (s *CommissionService) PostCommissions(ctx context.Context, orderID int64) ([]*models.ReferralCommission, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	if !order.IsPaid() {
		return nil, errors.ErrOrderNotPaid
	}

	if _, err := s.userRepo.GetByID(ctx, order.UserID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	chain, err := s.lineage.AncestorChain(ctx, order.UserID, s.chainDepth())
	if err != nil {
		return nil, err
	}

	rates, err := s.rateTable(ctx)
	if err != nil {
		return nil, err
	}

	posted := make([]*models.ReferralCommission, 0, len(chain))
	for _, ancestor := range chain {
		// 环状脏数据可能让买家出现在自己的祖先链上，绝不发放
		if ancestor.ReferrerID == order.UserID {
			logger.Warn("祖先链包含买家自身，拒绝发放",
				logger.OrderID(order.ID),
				logger.UserID(order.UserID),
				logger.ReferralLevel(ancestor.Level),
			)
			continue
		}

		rate, ok := rates[ancestor.Level]
		if !ok {
			logger.Warn("层级缺少费率配置，跳过",
				logger.OrderID(order.ID),
				logger.ReferralLevel(ancestor.Level),
			)
			continue
		}

		reward := roundMoney(order.TotalAmount * rate / 100)
		if reward <= 0 {
			continue
		}

		commission, err := s.postOne(ctx, order, ancestor, rate, reward)
		if err != nil {
			logger.Error("佣金发放失败",
				logger.OrderID(order.ID),
				logger.ReferrerID(ancestor.ReferrerID),
				logger.ReferralLevel(ancestor.Level),
				logger.Err(err),
			)
			metrics.GetMetrics().RecordCommission(ancestor.Level, "error", 0)
			continue
		}
		if commission == nil {
			// 已存在流水，重试收敛为无操作
			metrics.GetMetrics().RecordCommission(ancestor.Level, "duplicate", 0)
			continue
		}

		posted = append(posted, commission)
		metrics.GetMetrics().RecordCommission(ancestor.Level, "posted", reward)

		event := &notify.CommissionEvent{
			OrderID:    order.ID,
			OrderNo:    order.OrderNo,
			BuyerID:    order.UserID,
			ReferrerID: ancestor.ReferrerID,
			Level:      ancestor.Level,
			Rate:       rate,
			Reward:     reward,
			PostedAt:   time.Now(),
		}
		if err := s.notifier.CommissionPosted(ctx, event); err != nil {
			logger.Warn("佣金通知投递失败",
				logger.OrderID(order.ID),
				logger.ReferrerID(ancestor.ReferrerID),
				logger.Err(err),
			)
		}

		logger.Info("佣金已入账",
			logger.OrderID(order.ID),
			logger.ReferrerID(ancestor.ReferrerID),
			logger.ReferralLevel(ancestor.Level),
			logger.Reward(reward),
		)
	}

	return posted, nil
}

// postOne 发放单个祖先的佣金：插入流水并原子累加余额。
// 返回 (nil, nil) 表示该流水已存在。
func (s *CommissionService) postOne(ctx context.Context, order *models.Order, ancestor Ancestor, rate, reward float64) (*models.ReferralCommission, error) {
	exists, err := s.commissionRepo.ExistsByOrderAndReferrer(ctx, order.ID, ancestor.ReferrerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	commission := &models.ReferralCommission{
		OrderID:        order.ID,
		UserID:         order.UserID,
		ReferrerID:     ancestor.ReferrerID,
		ReferralLevel:  ancestor.Level,
		CommissionRate: rate,
		RewardEarned:   reward,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(commission).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("id = ?", ancestor.ReferrerID).
			Update("balance", gorm.Expr("balance + ?", reward)).Error
	})
	if err != nil {
		// 并发重试撞上唯一索引视为已发放
		if stderrors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil
		}
		return nil, err
	}

	return commission, nil
}

// chainDepth 当前模式下的追溯层数
func (s *CommissionService) chainDepth() int {
	if s.mode == ModeFixed {
		return models.FixedCommissionLevels
	}
	return s.maxLevels
}

// rateTable 当前模式下的层级费率表
func (s *CommissionService) rateTable(ctx context.Context) (map[int]float64, error) {
	if s.mode == ModeFixed {
		return map[int]float64{
			1: models.FixedLevel1Rate,
			2: models.FixedLevel2Rate,
			3: models.FixedLevel3Rate,
		}, nil
	}

	levels, err := s.mlmLevelRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rates := make(map[int]float64, len(levels))
	for _, level := range levels {
		if level.Level >= 1 && level.Level <= s.maxLevels {
			rates[level.Level] = level.Percentage
		}
	}
	return rates, nil
}

// OrderCommissions 查询订单的佣金流水
func (s *CommissionService) OrderCommissions(ctx context.Context, orderID int64) ([]*models.ReferralCommission, error) {
	return s.commissionRepo.GetByOrderID(ctx, orderID)
}

// ReferrerCommissions 分页查询获益人的佣金流水及累计金额
func (s *CommissionService) ReferrerCommissions(ctx context.Context, referrerID int64, page, pageSize int) ([]*models.ReferralCommission, int64, float64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	list, total, err := s.commissionRepo.ListByReferrerID(ctx, referrerID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	sum, err := s.commissionRepo.SumRewardByReferrerID(ctx, referrerID)
	if err != nil {
		return nil, 0, 0, err
	}
	return list, total, sum, nil
}

// Levels 返回等级费率表全量配置
func (s *CommissionService) Levels(ctx context.Context) ([]*models.MlmLevel, error) {
	return s.mlmLevelRepo.ListAll(ctx)
}

// SaveLevel 写入或更新单个等级的费率配置
func (s *CommissionService) SaveLevel(ctx context.Context, level *models.MlmLevel) error {
	if level.Level < 1 || level.Level > models.MaxReferralDepth {
		return errors.ErrInvalidParams.WithMessage("等级超出范围")
	}
	if level.Percentage < 0 || level.Percentage > 100 {
		return errors.ErrInvalidParams.WithMessage("费率超出范围")
	}
	if err := s.mlmLevelRepo.Upsert(ctx, level); err != nil {
		return err
	}
	logger.Info("等级费率已更新",
		logger.ReferralLevel(level.Level),
		logger.Float64("percentage", level.Percentage),
	)
	return nil
}

// roundMoney 金额四舍五入到分
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
