// Package referral 推荐网络核心服务
package referral

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/qrcode"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

// BindingService 推荐关系绑定服务
type BindingService struct {
	userRepo *repository.UserRepository
	lineage  *LineageService
	qrGen    *qrcode.Generator
	baseURL  string
}

// NewBindingService 创建推荐关系绑定服务
func NewBindingService(userRepo *repository.UserRepository, lineage *LineageService, baseURL string) *BindingService {
	if baseURL == "" {
		baseURL = "https://app.example.com"
	}
	return &BindingService{
		userRepo: userRepo,
		lineage:  lineage,
		qrGen:    qrcode.NewGenerator(),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// Bind 把用户绑定到邀请码对应的推荐人名下。
// 绑定是一次性且不可变更的；绑定不得引入环。
func (s *BindingService) Bind(ctx context.Context, userID int64, code string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}
	if user.ReferrerID != nil {
		metrics.GetMetrics().RecordBinding("already_bound")
		return nil, errors.ErrCodeAlreadyBound
	}

	referrer, err := s.userRepo.GetByReferralCode(ctx, code)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			metrics.GetMetrics().RecordBinding("invalid_code")
			return nil, errors.ErrInvalidReferralCode
		}
		return nil, err
	}
	if referrer.ID == userID {
		metrics.GetMetrics().RecordBinding("self_referral")
		return nil, errors.ErrSelfReferral
	}

	// 沿推荐人的祖先链向上检查，绑定后不得出现环
	chain, err := s.lineage.AncestorChain(ctx, referrer.ID, models.MaxReferralDepth)
	if err != nil {
		return nil, err
	}
	for _, ancestor := range chain {
		if ancestor.ReferrerID == userID {
			metrics.GetMetrics().RecordBinding("cycle")
			return nil, errors.ErrCycleDetected
		}
	}

	bound, err := s.userRepo.BindReferrer(ctx, userID, referrer.ID)
	if err != nil {
		return nil, err
	}
	if !bound {
		// 并发绑定，先到者生效
		metrics.GetMetrics().RecordBinding("already_bound")
		return nil, errors.ErrCodeAlreadyBound
	}

	metrics.GetMetrics().RecordBinding("success")
	logger.Info("推荐关系已绑定",
		logger.UserID(userID),
		logger.ReferrerID(referrer.ID),
	)

	return s.userRepo.GetByID(ctx, userID)
}

// InviteInfo 邀请信息
type InviteInfo struct {
	ReferralCode string `json:"referral_code"`
	InviteLink   string `json:"invite_link"`
	QRCode       string `json:"qrcode"` // Data URL 格式的二维码图片
}

// InviteInfo 生成用户的邀请码、邀请链接和二维码
func (s *BindingService) InviteInfo(ctx context.Context, userID int64) (*InviteInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, err
	}

	link := fmt.Sprintf("%s/invite/%s", s.baseURL, user.ReferralCode)
	qr, err := s.qrGen.GenerateDataURL(link)
	if err != nil {
		return nil, err
	}

	return &InviteInfo{
		ReferralCode: user.ReferralCode,
		InviteLink:   link,
		QRCode:       qr,
	}, nil
}

// GenerateReferralCode 生成新的邀请码
func GenerateReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
