// Package user 用户服务单元测试
package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/config"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/errors"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/jwt"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	userRepo := repository.NewUserRepository(db)
	binding := referral.NewBindingService(userRepo, referral.NewLineageService(userRepo), "")
	jwtManager := jwt.NewManager(&config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpire:  24,
		RefreshTokenExpire: 168,
		Issuer:             "referral-mall-backend",
	})
	return NewUserService(userRepo, binding, jwtManager), db
}

func TestUserService_Register(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterRequest{Phone: "13800000001", Nickname: "阿林"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Len(t, resp.User.ReferralCode, 8)
	assert.Nil(t, resp.User.ReferrerID)

	// 手机号重复
	_, err = svc.Register(ctx, &RegisterRequest{Phone: "13800000001"})
	assert.ErrorIs(t, err, errors.ErrUserExists)
}

func TestUserService_Register_WithReferralCode(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, &RegisterRequest{Phone: "13800000001"})
	require.NoError(t, err)

	// 注册时携带邀请码直接绑定
	second, err := svc.Register(ctx, &RegisterRequest{
		Phone:        "13800000002",
		ReferralCode: first.User.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, second.User.ReferrerID)
	assert.Equal(t, first.User.ID, *second.User.ReferrerID)
}

func TestUserService_Register_InvalidReferralCode(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Phone:        "13800000003",
		ReferralCode: "MISSING",
	})
	assert.ErrorIs(t, err, errors.ErrInvalidReferralCode)
}

func TestUserService_Login(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Phone: "13800000001"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, "13800000001")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)

	t.Run("未注册手机号", func(t *testing.T) {
		_, err := svc.Login(ctx, "13899999999")
		assert.ErrorIs(t, err, errors.ErrUserNotFound)
	})

	t.Run("禁用账号", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).
			Where("id = ?", registered.User.ID).
			Update("status", models.UserStatusDisabled).Error)

		_, err := svc.Login(ctx, "13800000001")
		assert.ErrorIs(t, err, errors.ErrUserDisabled)
	})
}

func TestUserService_Get(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, &RegisterRequest{Phone: "13800000001"})
	require.NoError(t, err)

	user, err := svc.Get(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, user.ID)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}
