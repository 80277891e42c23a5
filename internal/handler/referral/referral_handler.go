// Package referral 提供推荐网络相关的 HTTP Handler
package referral

import (
	"github.com/gin-gonic/gin"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/handler"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/response"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

// Handler 推荐网络处理器
type Handler struct {
	bindingService    *referral.BindingService
	lineageService    *referral.LineageService
	volumeService     *referral.VolumeService
	commissionService *referral.CommissionService
	preferenceService *referral.PreferenceService
}

// NewHandler 创建推荐网络处理器
func NewHandler(
	bindingSvc *referral.BindingService,
	lineageSvc *referral.LineageService,
	volumeSvc *referral.VolumeService,
	commissionSvc *referral.CommissionService,
	preferenceSvc *referral.PreferenceService,
) *Handler {
	return &Handler{
		bindingService:    bindingSvc,
		lineageService:    lineageSvc,
		volumeService:     volumeSvc,
		commissionService: commissionSvc,
		preferenceService: preferenceSvc,
	}
}

// BindRequest 绑定推荐人请求
type BindRequest struct {
	ReferralCode string `json:"referral_code" binding:"required"`
}

// Bind 绑定推荐人
// @Summary 绑定推荐人
// @Tags 推荐网络
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body BindRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/referral/bind [post]
func (h *Handler) Bind(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req BindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	user, err := h.bindingService.Bind(c.Request.Context(), userID, req.ReferralCode)
	handler.MustSucceed(c, err, user)
}

// GetInviteInfo 获取邀请信息
// @Summary 获取邀请码、邀请链接和二维码
// @Tags 推荐网络
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=referral.InviteInfo}
// @Router /api/v1/referral/invite [get]
func (h *Handler) GetInviteInfo(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	info, err := h.bindingService.InviteInfo(c.Request.Context(), userID)
	handler.MustSucceed(c, err, info)
}

// GetAncestors 获取推荐链
// @Summary 获取当前用户的推荐链
// @Tags 推荐网络
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]referral.Ancestor}
// @Router /api/v1/referral/ancestors [get]
func (h *Handler) GetAncestors(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	chain, err := h.lineageService.AncestorChain(c.Request.Context(), userID, 0)
	handler.MustSucceed(c, err, chain)
}

// GetGroupVolume 获取团队业绩
// @Summary 获取当前用户的团队业绩
// @Tags 推荐网络
// @Produce json
// @Security Bearer
// @Param period query string false "统计周期: all_time/month/quarter/year" default(all_time)
// @Success 200 {object} response.Response{data=referral.GroupVolumeResult}
// @Router /api/v1/referral/volume/group [get]
func (h *Handler) GetGroupVolume(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	period, err := referral.ParsePeriod(c.Query("period"))
	if handler.HandleError(c, err) {
		return
	}

	result, err := h.volumeService.GroupVolume(c.Request.Context(), userID, period)
	handler.MustSucceed(c, err, result)
}

// GetPersonalVolume 获取个人业绩
// @Summary 获取当前用户的个人业绩
// @Tags 推荐网络
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response
// @Router /api/v1/referral/volume/personal [get]
func (h *Handler) GetPersonalVolume(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	pv, err := h.volumeService.PersonalVolume(c.Request.Context(), userID)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{
		"total_pv":     pv,
		"payout_value": h.volumeService.PayoutValue(pv),
	})
}

// GetCommissions 获取佣金流水
// @Summary 获取当前用户的佣金流水及累计金额
// @Tags 推荐网络
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response
// @Router /api/v1/referral/commissions [get]
func (h *Handler) GetCommissions(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	list, total, sum, err := h.commissionService.ReferrerCommissions(c.Request.Context(), userID, p.Page, p.PageSize)
	if handler.HandleError(c, err) {
		return
	}

	response.Success(c, gin.H{
		"list":         list,
		"total":        total,
		"total_reward": sum,
		"page":         p.Page,
		"page_size":    p.PageSize,
	})
}

// GetPreferences 获取奖金偏好
// @Summary 获取当前用户的奖金分配偏好
// @Tags 推荐网络
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.UserBonusPreferences}
// @Router /api/v1/referral/preferences [get]
func (h *Handler) GetPreferences(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	prefs, err := h.preferenceService.GetOrCreate(c.Request.Context(), userID)
	handler.MustSucceed(c, err, prefs)
}

// UpdatePreferences 更新奖金偏好
// @Summary 更新当前用户的奖金分配偏好
// @Tags 推荐网络
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body referral.UpdateRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.UserBonusPreferences}
// @Router /api/v1/referral/preferences [put]
func (h *Handler) UpdatePreferences(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req referral.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	prefs, err := h.preferenceService.Update(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, prefs)
}
