// Package order 提供订单相关的 HTTP Handler
package order

import (
	"github.com/gin-gonic/gin"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/handler"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/response"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/order"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

// Handler 订单处理器
type Handler struct {
	orderService      *order.OrderService
	commissionService *referral.CommissionService
}

// NewHandler 创建订单处理器
func NewHandler(orderSvc *order.OrderService, commissionSvc *referral.CommissionService) *Handler {
	return &Handler{
		orderService:      orderSvc,
		commissionService: commissionSvc,
	}
}

// CreateRequest 创建订单请求
type CreateRequest struct {
	TotalAmount  float64 `json:"total_amount" binding:"required,gt=0"`
	ReferralCode string  `json:"referral_code"`
}

// Create 创建订单
// @Summary 创建订单
// @Tags 订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body CreateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.orderService.Create(c.Request.Context(), &order.CreateRequest{
		UserID:       userID,
		TotalAmount:  req.TotalAmount,
		ReferralCode: req.ReferralCode,
	})
	handler.MustSucceed(c, err, result)
}

// Pay 支付回调
// @Summary 订单支付成功回调
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id}/pay [post]
func (h *Handler) Pay(c *gin.Context) {
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	result, err := h.orderService.MarkPaid(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, result)
}

// Cancel 取消订单
// @Summary 取消待支付订单
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id}/cancel [post]
func (h *Handler) Cancel(c *gin.Context) {
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	err := h.orderService.Cancel(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, nil)
}

// Get 查询订单详情
// @Summary 查询订单详情
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=models.Order}
// @Router /api/v1/orders/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	result, err := h.orderService.Get(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, result)
}

// List 查询订单列表
// @Summary 查询当前用户的订单列表
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=response.PageData}
// @Router /api/v1/orders [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	list, total, err := h.orderService.ListByUser(c.Request.Context(), userID, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, list, total, p.Page, p.PageSize)
}

// GetCommissions 查询订单的佣金流水
// @Summary 查询订单产生的佣金流水
// @Tags 订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=[]models.ReferralCommission}
// @Router /api/v1/orders/{id}/commissions [get]
func (h *Handler) GetCommissions(c *gin.Context) {
	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	list, err := h.commissionService.OrderCommissions(c.Request.Context(), orderID)
	handler.MustSucceed(c, err, list)
}
