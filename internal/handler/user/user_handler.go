// Package user 提供用户相关的 HTTP Handler
package user

import (
	"github.com/gin-gonic/gin"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/handler"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/response"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/utils"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/user"
)

// Handler 用户处理器
type Handler struct {
	userService *user.UserService
}

// NewHandler 创建用户处理器
func NewHandler(userSvc *user.UserService) *Handler {
	return &Handler{userService: userSvc}
}

// Register 用户注册
// @Summary 用户注册
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body user.RegisterRequest true "请求参数"
// @Success 200 {object} response.Response{data=user.AuthResponse}
// @Router /api/v1/users/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	if !utils.ValidatePhone(req.Phone) {
		response.BadRequest(c, "手机号格式错误")
		return
	}

	result, err := h.userService.Register(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// LoginRequest 登录请求
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// Login 用户登录
// @Summary 手机号登录
// @Tags 用户
// @Accept json
// @Produce json
// @Param request body LoginRequest true "请求参数"
// @Success 200 {object} response.Response{data=user.AuthResponse}
// @Router /api/v1/users/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.userService.Login(c.Request.Context(), req.Phone)
	handler.MustSucceed(c, err, result)
}

// GetProfile 获取当前用户信息
// @Summary 获取当前用户信息
// @Tags 用户
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=models.User}
// @Router /api/v1/users/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	result, err := h.userService.Get(c.Request.Context(), userID)
	handler.MustSucceed(c, err, result)
}
