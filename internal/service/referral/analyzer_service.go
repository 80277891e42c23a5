// Package referral 推荐网络核心服务
package referral

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/cache"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

// DefaultHealthCacheTTL 健康快照默认缓存时长
const DefaultHealthCacheTTL = 30 * time.Minute

// healthScore 评分分段阈值。
// 基础分 50，绑定率与网络深度分段加分，上限 100。
const (
	rateBandHigh = 0.7
	rateBandMid  = 0.4
	rateBandLow  = 0.2

	depthBandHigh = 5
	depthBandLow  = 3
)

// HealthSnapshot 网络健康诊断快照。
// 纯派生数据，不作为任何事实来源持久化，可随时重算。
type HealthSnapshot struct {
	TotalUsers      int64     `json:"total_users"`
	ActiveReferrals int64     `json:"active_referrals"` // 已绑定推荐人的用户数
	ReferralRate    float64   `json:"referral_rate"`
	NetworkDepth    int       `json:"network_depth"` // 观测到的最大推荐链深度
	HealthScore     int       `json:"health_score"`  // 0-100
	Recommendations []string  `json:"recommendations"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// AnalyzerService 网络健康分析服务。
// 全量扫描用户表，结果经注入的缓存接口按短 TTL 复用。
type AnalyzerService struct {
	userRepo *repository.UserRepository
	store    cache.Store
	ttl      time.Duration
	now      func() time.Time
}

// NewAnalyzerService 创建网络健康分析服务
func NewAnalyzerService(userRepo *repository.UserRepository, store cache.Store, ttl time.Duration) *AnalyzerService {
	if store == nil {
		store = cache.NewMemoryStore()
	}
	if ttl <= 0 {
		ttl = DefaultHealthCacheTTL
	}
	return &AnalyzerService{
		userRepo: userRepo,
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Analyze 返回网络健康快照，优先命中缓存
func (s *AnalyzerService) Analyze(ctx context.Context) (*HealthSnapshot, error) {
	var cached HealthSnapshot
	err := s.store.Get(ctx, cache.KeyPrefixNetworkHealth, &cached)
	if err == nil {
		metrics.GetMetrics().RecordCacheHit("network_health")
		return &cached, nil
	}
	if !stderrors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("健康快照缓存读取失败", logger.Err(err))
	}
	metrics.GetMetrics().RecordCacheMiss("network_health")

	snapshot, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.Set(ctx, cache.KeyPrefixNetworkHealth, snapshot, s.ttl); err != nil {
		logger.Warn("健康快照缓存写入失败", logger.Err(err))
	}
	return snapshot, nil
}

// Refresh 强制重算并回填缓存
func (s *AnalyzerService) Refresh(ctx context.Context) (*HealthSnapshot, error) {
	snapshot, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, cache.KeyPrefixNetworkHealth, snapshot, s.ttl); err != nil {
		logger.Warn("健康快照缓存写入失败", logger.Err(err))
	}
	return snapshot, nil
}

// compute 全量扫描计算快照
func (s *AnalyzerService) compute(ctx context.Context) (*HealthSnapshot, error) {
	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}
	activeReferrals, err := s.userRepo.CountWithReferrer(ctx)
	if err != nil {
		return nil, err
	}

	depth, reachable, err := s.networkDepth(ctx)
	if err != nil {
		return nil, err
	}

	// 从根出发无法触达的绑定用户意味着图中存在环
	if reachable < totalUsers {
		logger.Warn("推荐网络存在从根不可达的节点",
			logger.Int64("total", totalUsers),
			logger.Int64("reachable", reachable),
		)
	}

	rate := 0.0
	if totalUsers > 0 {
		rate = float64(activeReferrals) / float64(totalUsers)
	}

	score := healthScore(rate, depth)
	metrics.GetMetrics().SetNetworkHealthScore(score)

	return &HealthSnapshot{
		TotalUsers:      totalUsers,
		ActiveReferrals: activeReferrals,
		ReferralRate:    rate,
		NetworkDepth:    depth,
		HealthScore:     score,
		Recommendations: recommendations(rate, depth),
		GeneratedAt:     s.now(),
	}, nil
}

// networkDepth 从所有根用户逐层向下展开，返回观测到的最大深度
// 和触达的节点总数。层数上限与推荐链深度上限一致，保证脏数据
// 引入环时也能终止。
func (s *AnalyzerService) networkDepth(ctx context.Context) (int, int64, error) {
	rootIDs, err := s.userRepo.ListRootIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	visited := make(map[int64]struct{}, len(rootIDs))
	for _, id := range rootIDs {
		visited[id] = struct{}{}
	}

	depth := 0
	frontier := rootIDs
	for level := 1; level <= models.MaxReferralDepth && len(frontier) > 0; level++ {
		children, err := s.userRepo.GetIDsByReferrerIDs(ctx, frontier)
		if err != nil {
			return 0, 0, err
		}

		next := make([]int64, 0, len(children))
		for _, id := range children {
			if _, seen := visited[id]; seen {
				continue
			}
			visited[id] = struct{}{}
			next = append(next, id)
		}
		if len(next) > 0 {
			depth = level
		}
		frontier = next
	}

	return depth, int64(len(visited)), nil
}

// healthScore 分段加分的启发式评分，裁剪到 [0,100]
func healthScore(rate float64, depth int) int {
	score := 50

	switch {
	case rate >= rateBandHigh:
		score += 30
	case rate >= rateBandMid:
		score += 20
	case rate >= rateBandLow:
		score += 10
	}

	switch {
	case depth >= depthBandHigh:
		score += 20
	case depth >= depthBandLow:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// recommendations 根据指标给出运营建议
func recommendations(rate float64, depth int) []string {
	var recs []string
	if rate < rateBandMid {
		recs = append(recs, "推荐绑定率偏低，建议加强邀请激励")
	}
	if depth < depthBandLow {
		recs = append(recs, "网络深度较浅，建议引导核心用户发展下级")
	}
	if len(recs) == 0 {
		recs = append(recs, "网络状态良好，保持当前运营策略")
	}
	return recs
}
