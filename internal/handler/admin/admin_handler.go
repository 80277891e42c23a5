// Package admin 提供管理端 HTTP Handler
package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/handler"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/response"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

// Handler 管理端处理器
type Handler struct {
	analyzerService   *referral.AnalyzerService
	commissionService *referral.CommissionService
	preferenceService *referral.PreferenceService
	volumeService     *referral.VolumeService
}

// NewHandler 创建管理端处理器
func NewHandler(
	analyzerSvc *referral.AnalyzerService,
	commissionSvc *referral.CommissionService,
	preferenceSvc *referral.PreferenceService,
	volumeSvc *referral.VolumeService,
) *Handler {
	return &Handler{
		analyzerService:   analyzerSvc,
		commissionService: commissionSvc,
		preferenceService: preferenceSvc,
		volumeService:     volumeSvc,
	}
}

// GetNetworkHealth 获取网络健康快照
// @Summary 获取推荐网络健康快照
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=referral.HealthSnapshot}
// @Router /admin/network/health [get]
func (h *Handler) GetNetworkHealth(c *gin.Context) {
	snapshot, err := h.analyzerService.Analyze(c.Request.Context())
	handler.MustSucceed(c, err, snapshot)
}

// RefreshNetworkHealth 强制刷新网络健康快照
// @Summary 强制重算推荐网络健康快照
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=referral.HealthSnapshot}
// @Router /admin/network/health/refresh [post]
func (h *Handler) RefreshNetworkHealth(c *gin.Context) {
	snapshot, err := h.analyzerService.Refresh(c.Request.Context())
	handler.MustSucceed(c, err, snapshot)
}

// GetUserGroupVolume 查询指定用户的团队业绩
// @Summary 查询指定用户的团队业绩
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param period query string false "统计周期: all_time/month/quarter/year" default(all_time)
// @Success 200 {object} response.Response{data=referral.GroupVolumeResult}
// @Router /admin/users/{id}/volume [get]
func (h *Handler) GetUserGroupVolume(c *gin.Context) {
	userID, ok := handler.ParseID(c, "用户")
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

// LockRequest 偏好锁定请求
type LockRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

// SetPreferenceLock 锁定或解锁用户的奖金偏好
// @Summary 锁定或解锁用户的奖金分配偏好
// @Tags 管理端
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "用户ID"
// @Param request body LockRequest true "请求参数"
// @Success 200 {object} response.Response{data=models.UserBonusPreferences}
// @Router /admin/users/{id}/preferences/lock [put]
func (h *Handler) SetPreferenceLock(c *gin.Context) {
	userID, ok := handler.ParseID(c, "用户")
	if !ok {
		return
	}

	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	prefs, err := h.preferenceService.SetLock(c.Request.Context(), userID, *req.Locked)
	handler.MustSucceed(c, err, prefs)
}

// ListMlmLevels 查询等级费率表
// @Summary 查询等级费率表
// @Tags 管理端
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=[]models.MlmLevel}
// @Router /admin/mlm-levels [get]
func (h *Handler) ListMlmLevels(c *gin.Context) {
	levels, err := h.commissionService.Levels(c.Request.Context())
	handler.MustSucceed(c, err, levels)
}

// LevelRequest 等级费率配置请求
type LevelRequest struct {
	Level                  int     `json:"level" binding:"required,min=1,max=16"`
	Name                   string  `json:"name"`
	Percentage             float64 `json:"percentage" binding:"min=0,max=100"`
	RequiredPersonalVolume float64 `json:"required_personal_volume" binding:"min=0"`
	RequiredGroupVolume    float64 `json:"required_group_volume" binding:"min=0"`
}

// UpsertMlmLevel 写入或更新等级费率配置
// @Summary 写入或更新单个等级的费率配置
// @Tags 管理端
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body LevelRequest true "请求参数"
// @Success 200 {object} response.Response
// @Router /admin/mlm-levels [put]
func (h *Handler) UpsertMlmLevel(c *gin.Context) {
	var req LevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	err := h.commissionService.SaveLevel(c.Request.Context(), &models.MlmLevel{
		Level:                  req.Level,
		Name:                   req.Name,
		Percentage:             req.Percentage,
		RequiredPersonalVolume: req.RequiredPersonalVolume,
		RequiredGroupVolume:    req.RequiredGroupVolume,
	})
	handler.MustSucceed(c, err, nil)
}
