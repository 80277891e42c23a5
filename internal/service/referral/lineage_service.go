// Package referral 推荐网络核心服务
package referral

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/logger"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
	"github.com/linzhaoyu/referral-mall-backend/internal/models"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
)

// Ancestor 祖先链中的一个节点
type Ancestor struct {
	ReferrerID int64 `json:"referrer_id"`
	Level      int   `json:"level"`
}

// LineageService 推荐链解析服务。
// 只读，无副作用，可对不同根节点并发调用。
type LineageService struct {
	userRepo *repository.UserRepository
}

// NewLineageService 创建推荐链解析服务
func NewLineageService(userRepo *repository.UserRepository) *LineageService {
	return &LineageService{userRepo: userRepo}
}

// AncestorChain 向上解析用户的祖先链，按层级升序返回。
// 最多追溯 maxLevels 层（上限 16）；遇到缺失的上级正常终止；
// 遇到环（脏数据）立即截断并记录异常，不向调用方抛错。
func (s *LineageService) AncestorChain(ctx context.Context, userID int64, maxLevels int) ([]Ancestor, error) {
	if maxLevels <= 0 || maxLevels > models.MaxReferralDepth {
		maxLevels = models.MaxReferralDepth
	}

	chain := make([]Ancestor, 0, maxLevels)
	visited := map[int64]struct{}{userID: {}}

	current, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for level := 1; level <= maxLevels; level++ {
		if current.ReferrerID == nil {
			break
		}
		referrerID := *current.ReferrerID

		if _, seen := visited[referrerID]; seen {
			logger.Warn("推荐链存在环，已截断",
				logger.UserID(userID),
				logger.ReferrerID(referrerID),
				logger.ReferralLevel(level),
			)
			break
		}
		visited[referrerID] = struct{}{}

		referrer, err := s.userRepo.GetByID(ctx, referrerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 上级记录缺失，链到此为止
				logger.Warn("推荐链上级缺失",
					logger.UserID(userID),
					logger.ReferrerID(referrerID),
				)
				break
			}
			return nil, err
		}

		chain = append(chain, Ancestor{ReferrerID: referrerID, Level: level})
		current = referrer
	}

	metrics.GetMetrics().ObserveLineageDepth(len(chain))
	return chain, nil
}

// DescendantSet 向下按层展开用户的全部下级，不含根自身。
// 广度优先逐层批量查询，深度上限 maxLevels（默认 16）；
// visited 集合防止交叉边导致的重复计数与死循环。
func (s *LineageService) DescendantSet(ctx context.Context, rootUserID int64, maxLevels int) ([]int64, error) {
	if maxLevels <= 0 || maxLevels > models.MaxReferralDepth {
		maxLevels = models.MaxReferralDepth
	}

	visited := map[int64]struct{}{rootUserID: {}}
	var result []int64

	frontier := []int64{rootUserID}
	for depth := 1; depth <= maxLevels && len(frontier) > 0; depth++ {
		children, err := s.userRepo.GetIDsByReferrerIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}

		next := make([]int64, 0, len(children))
		for _, id := range children {
			if _, seen := visited[id]; seen {
				logger.Warn("下级网络存在交叉边，已跳过",
					logger.UserID(rootUserID),
					logger.Int64("duplicate_id", id),
				)
				continue
			}
			visited[id] = struct{}{}
			result = append(result, id)
			next = append(next, id)
		}
		frontier = next
	}

	return result, nil
}
