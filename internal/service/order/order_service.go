// Package order 订单服务
package order

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

// OrderService 订单服务。
// 订单支付成功是佣金引擎的唯一触发点。
type OrderService struct {
	orderRepo  *repository.OrderRepository
	userRepo   *repository.UserRepository
	commission *referral.CommissionService
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo *repository.OrderRepository,
	userRepo *repository.UserRepository,
	commission *referral.CommissionService,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		userRepo:   userRepo,
		commission: commission,
	}
}

// CreateRequest 创建订单请求
type CreateRequest struct {
	UserID       int64   `json:"user_id" binding:"required"`
	TotalAmount  float64 `json:"total_amount" binding:"required,gt=0"`
	ReferralCode string  `json:"referral_code"`
}

// Create 创建订单
func (s *OrderService) Create(ctx context.Context, req *CreateRequest) (*models.Order, error) {
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	order := &models.Order{
		OrderNo:       generateOrderNo(),
		UserID:        req.UserID,
		TotalAmount:   req.TotalAmount,
		PaymentStatus: models.PaymentStatusPending,
	}
	if req.ReferralCode != "" {
		order.ReferralCodeUsed = &req.ReferralCode
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	metrics.GetMetrics().RecordOrder("created")
	return order, nil
}

// MarkPaid 处理订单支付成功回调。
// 状态迁移、买家个人业绩累加和佣金发放在此串联；
// 重复回调被条件更新挡下，收敛为无操作。
func (s *OrderService) MarkPaid(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}

	changed, err := s.orderRepo.MarkPaid(ctx, orderID, time.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		if order.IsPaid() {
			// 重复回调
			return order, nil
		}
		return nil, errors.ErrOrderStatusError
	}

	metrics.GetMetrics().RecordOrder("paid")

	// 消费额按固定费率折算个人业绩
	pv := order.TotalAmount / models.CurrencyPerVolumePoint
	if err := s.userRepo.AddTotalPV(ctx, order.UserID, pv); err != nil {
		logger.Error("个人业绩累加失败",
			logger.OrderID(orderID),
			logger.UserID(order.UserID),
			logger.Err(err),
		)
	}

	if _, err := s.commission.PostCommissions(ctx, orderID); err != nil {
		// 佣金发放失败不影响支付状态，唯一索引保证重试安全
		logger.Error("佣金发放失败，可安全重试",
			logger.OrderID(orderID),
			logger.Err(err),
		)
	}

	return s.orderRepo.GetByID(ctx, orderID)
}

// Cancel 取消待支付订单
func (s *OrderService) Cancel(ctx context.Context, orderID int64) error {
	changed, err := s.orderRepo.Cancel(ctx, orderID)
	if err != nil {
		return err
	}
	if !changed {
		return errors.ErrOrderStatusError
	}
	metrics.GetMetrics().RecordOrder("cancelled")
	return nil
}

// Get 查询订单
func (s *OrderService) Get(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListByUser 分页查询用户订单
func (s *OrderService) ListByUser(ctx context.Context, userID int64, page, pageSize int) ([]*models.Order, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.orderRepo.ListByUserID(ctx, userID, (page-1)*pageSize, pageSize)
}

// generateOrderNo 生成订单号
func generateOrderNo() string {
	return fmt.Sprintf("RM%s%s",
		time.Now().Format("20060102150405"),
		uuid.New().String()[:8],
	)
}
