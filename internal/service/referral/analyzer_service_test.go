// Package referral 网络健康分析单元测试
package referral

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/cache"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

func TestAnalyzerService_Analyze(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := NewAnalyzerService(repository.NewUserRepository(db), cache.NewMemoryStore(), time.Minute)
	ctx := context.Background()

	// 根 + 4 层链：5 个用户里 4 个已绑定
	createChain(db, t, "HLT", 5)

	snapshot, err := svc.Analyze(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(5), snapshot.TotalUsers)
	assert.Equal(t, int64(4), snapshot.ActiveReferrals)
	assert.InDelta(t, 0.8, snapshot.ReferralRate, 0.001)
	assert.Equal(t, 4, snapshot.NetworkDepth)
	// 50 + 30（绑定率 ≥ 0.7）+ 10（深度 ≥ 3）
	assert.Equal(t, 90, snapshot.HealthScore)
	assert.NotEmpty(t, snapshot.Recommendations)
	assert.False(t, snapshot.GeneratedAt.IsZero())
}

func TestAnalyzerService_Analyze_Empty(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := NewAnalyzerService(repository.NewUserRepository(db), cache.NewMemoryStore(), time.Minute)

	snapshot, err := svc.Analyze(context.Background())
	require.NoError(t, err)

	assert.Zero(t, snapshot.TotalUsers)
	assert.Zero(t, snapshot.ReferralRate)
	assert.Zero(t, snapshot.NetworkDepth)
	// 只有基础分
	assert.Equal(t, 50, snapshot.HealthScore)
}

func TestAnalyzerService_Analyze_CachesSnapshot(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := NewAnalyzerService(repository.NewUserRepository(db), cache.NewMemoryStore(), time.Hour)
	ctx := context.Background()

	createChain(db, t, "CCH", 3)

	first, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.TotalUsers)

	// 新增用户后缓存未过期，仍返回旧快照
	createUser(db, t, "CCHX", nil)

	second, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.TotalUsers)

	// 强制刷新后看到新数据
	third, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), third.TotalUsers)
}

func TestAnalyzerService_Analyze_SelfLoopTerminates(t *testing.T) {
	db := setupReferralTestDB(t)
	svc := NewAnalyzerService(repository.NewUserRepository(db), cache.NewMemoryStore(), time.Minute)
	ctx := context.Background()

	root := createUser(db, t, "SLA", nil)
	// 脏数据：自指节点从任何根都不可达
	orphan := createUser(db, t, "SLB", nil)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", orphan.ID).Update("referrer_id", orphan.ID).Error)

	snapshot, err := svc.Analyze(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), snapshot.TotalUsers)
	assert.Equal(t, int64(1), snapshot.ActiveReferrals)
	assert.Zero(t, snapshot.NetworkDepth)
	_ = root
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		depth int
		want  int
	}{
		{"零网络", 0, 0, 50},
		{"低绑定率", 0.2, 0, 60},
		{"中绑定率", 0.4, 0, 70},
		{"高绑定率", 0.7, 0, 80},
		{"浅网络", 0, 3, 60},
		{"深网络", 0, 5, 70},
		{"满分封顶", 1.0, 16, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, healthScore(tt.rate, tt.depth))
		})
	}
}
