// Package user 用户服务
package user

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/jwt"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

// UserService 用户服务
type UserService struct {
	userRepo   *repository.UserRepository
	binding    *referral.BindingService
	jwtManager *jwt.Manager
}

// NewUserService 创建用户服务
func NewUserService(userRepo *repository.UserRepository, binding *referral.BindingService, jwtManager *jwt.Manager) *UserService {
	return &UserService{
		userRepo:   userRepo,
		binding:    binding,
		jwtManager: jwtManager,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Phone        string `json:"phone" binding:"required"`
	Nickname     string `json:"nickname"`
	ReferralCode string `json:"referral_code"` // 可选，注册时直接绑定推荐人
}

// AuthResponse 认证响应
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// Register 注册新用户并分配邀请码。
// 携带邀请码时在注册流程内完成推荐关系绑定。
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if _, err := s.userRepo.GetByPhone(ctx, req.Phone); err == nil {
		return nil, errors.ErrUserExists
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user := &models.User{
		Phone:        &req.Phone,
		Nickname:     req.Nickname,
		ReferralCode: referral.GenerateReferralCode(),
		Status:       models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if req.ReferralCode != "" {
		bound, err := s.binding.Bind(ctx, user.ID, req.ReferralCode)
		if err != nil {
			// 注册已完成，绑定失败只向上透出业务错误
			logger.Warn("注册时绑定推荐人失败",
				logger.UserID(user.ID),
				logger.String("referral_code", req.ReferralCode),
				logger.Err(err),
			)
			return nil, err
		}
		user = bound
	}

	return s.issueTokens(user)
}

// Login 手机号登录
func (s *UserService) Login(ctx context.Context, phone string) (*AuthResponse, error) {
	user, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrUserDisabled
	}

	return s.issueTokens(user)
}

// Get 查询用户
func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issueTokens 签发访问与刷新令牌
func (s *UserService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, jwt.RoleUser)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, jwt.RoleUser)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
