// Package scheduler 提供定时任务
package scheduler

import (
	"context"
	"time"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

// 待支付订单超过该时长自动过期
const pendingOrderTTL = 30 * time.Minute

// TaskHandler 任务处理器
type TaskHandler struct {
	orderRepo *repository.OrderRepository
	analyzer  *referral.AnalyzerService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(orderRepo *repository.OrderRepository, analyzer *referral.AnalyzerService) *TaskHandler {
	return &TaskHandler{
		orderRepo: orderRepo,
		analyzer:  analyzer,
	}
}

// RefreshNetworkHealth 重算网络健康快照并回填缓存
func (h *TaskHandler) RefreshNetworkHealth(ctx context.Context) error {
	snapshot, err := h.analyzer.Refresh(ctx)
	if err != nil {
		return err
	}
	logger.Info("网络健康快照已刷新",
		logger.Int64("total_users", snapshot.TotalUsers),
		logger.Int("health_score", snapshot.HealthScore),
	)
	return nil
}

// ExpireStaleOrders 过期超时未支付的订单
func (h *TaskHandler) ExpireStaleOrders(ctx context.Context) error {
	expired, err := h.orderRepo.ExpireStalePending(ctx, time.Now().Add(-pendingOrderTTL))
	if err != nil {
		return err
	}
	if expired > 0 {
		logger.Info("已过期超时订单", logger.Int64("count", expired))
	}
	return nil
}
