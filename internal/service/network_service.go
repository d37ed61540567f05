package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xiuda-next/internal/cache"
	"github.com/xiuda-next/internal/constants"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/repository"
)

const (
	createReferralAttempts = 3
	recentBonusLimit       = 10
)

// ReferralNode 推荐树节点：被推荐用户 + 该条边的累计业绩
type ReferralNode struct {
	UserID      uint           `json:"user_id"`
	Name        string         `json:"name"`
	Role        string         `json:"role"`
	TotalEarned models.Money   `json:"total_earned"`
	OrdersCount int            `json:"orders_count"`
	Children    []ReferralNode `json:"children,omitempty"`
}

// LedgerSummary 师傅看板摘要
type LedgerSummary struct {
	UserID           uint                    `json:"user_id"`
	Name             string                  `json:"name"`
	ReferralsCount   int64                   `json:"referrals_count"`
	TotalEarnings    models.Money            `json:"total_earnings"`
	TotalCommissions models.Money            `json:"total_commissions"`
	AvailableBalance models.Money            `json:"available_balance"`
	WithdrawnAmount  models.Money            `json:"withdrawn_amount"`
	Rating           float64                 `json:"rating"`
	Structure        []ReferralNode          `json:"structure"`
	RecentBonuses    []models.BonusEntry     `json:"recent_bonuses"`
	BonusStats       map[string]models.Money `json:"bonus_stats"`
	GeneratedAt      time.Time               `json:"generated_at"`
}

// NetworkService 推荐网络读写：建边、建树、看板摘要
type NetworkService struct {
	referralRepo repository.ReferralRepository
	userRepo     repository.UserRepository
	ledgerRepo   repository.LedgerRepository
	bonusRepo    repository.BonusRepository
	notifier     EventNotifier
	summaryTTL   time.Duration
}

// NewNetworkService 创建推荐网络服务
func NewNetworkService(
	referralRepo repository.ReferralRepository,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
	bonusRepo repository.BonusRepository,
	notifier EventNotifier,
	summaryTTL time.Duration,
) *NetworkService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if summaryTTL <= 0 {
		summaryTTL = time.Minute
	}
	return &NetworkService{
		referralRepo: referralRepo,
		userRepo:     userRepo,
		ledgerRepo:   ledgerRepo,
		bonusRepo:    bonusRepo,
		notifier:     notifier,
		summaryTTL:   summaryTTL,
	}
}

// CreateReferral 建立推荐边，幂等：同一 (referrer, referred) 重复调用返回既有边。
func (s *NetworkService) CreateReferral(referrerID, referredID uint) (*models.Referral, error) {
	if referrerID == referredID {
		return nil, ErrSelfReferral
	}
	referrer, err := s.userRepo.GetByID(referrerID)
	if err != nil {
		return nil, err
	}
	referred, err := s.userRepo.GetByID(referredID)
	if err != nil {
		return nil, err
	}
	if referrer == nil || referred == nil {
		return nil, ErrUserNotFound
	}

	var created *models.Referral
	for attempt := 0; attempt < createReferralAttempts; attempt++ {
		existing, err := s.referralRepo.GetByEdge(referrerID, referredID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}

		err = s.referralRepo.Transaction(func(tx *gorm.DB) error {
			referralRepo := s.referralRepo.WithTx(tx)
			userRepo := s.userRepo.WithTx(tx)
			ledgerRepo := s.ledgerRepo.WithTx(tx)

			edge := &models.Referral{
				ReferrerID: referrerID,
				ReferredID: referredID,
				IsActive:   true,
			}
			if err := referralRepo.Create(edge); err != nil {
				return err
			}

			if referred.ReferrerID == nil {
				referred.ReferrerID = &referrerID
				if err := userRepo.Update(referred); err != nil {
					return err
				}
			}

			ledger, err := ensureLedgerForUpdate(ledgerRepo, referrerID)
			if err != nil {
				return err
			}
			ledger.ReferralsCount++
			if err := ledgerRepo.Update(ledger); err != nil {
				return err
			}

			created = edge
			return nil
		})
		if err == nil {
			break
		}
		if isUniqueViolation(err) {
			// 并发建边：下一轮读取既有记录
			created = nil
			continue
		}
		return nil, err
	}
	if created == nil {
		existing, err := s.referralRepo.GetByEdge(referrerID, referredID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrConcurrencyConflict
		}
		return existing, nil
	}

	s.notifier.NotifyNetworkUpdated(NetworkEvent{ReferrerID: referrerID})
	s.invalidateNetworkCache(referrerID)
	return created, nil
}

// ResolveReferralCode 按推荐码查找推荐人
func (s *NetworkService) ResolveReferralCode(code string) (*models.User, error) {
	return s.userRepo.GetByReferralCode(code)
}

// BuildTree 构建推荐树（广度视图，深度受限）。
// 指向已不存在用户的悬挂边被静默跳过。
func (s *NetworkService) BuildTree(userID uint, maxDepth int) ([]ReferralNode, error) {
	if maxDepth <= 0 || maxDepth > constants.ReferralLevelMax {
		maxDepth = constants.ReferralLevelMax
	}
	return s.buildSubtree(userID, maxDepth)
}

func (s *NetworkService) buildSubtree(userID uint, depth int) ([]ReferralNode, error) {
	if depth <= 0 {
		return nil, nil
	}
	edges, err := s.referralRepo.ListByReferrer(userID)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return []ReferralNode{}, nil
	}

	referredIDs := make([]uint, 0, len(edges))
	for _, edge := range edges {
		referredIDs = append(referredIDs, edge.ReferredID)
	}
	users, err := s.userRepo.GetByIDs(referredIDs)
	if err != nil {
		return nil, err
	}
	userByID := make(map[uint]models.User, len(users))
	for _, user := range users {
		userByID[user.ID] = user
	}

	nodes := make([]ReferralNode, 0, len(edges))
	for _, edge := range edges {
		user, ok := userByID[edge.ReferredID]
		if !ok {
			continue
		}
		node := ReferralNode{
			UserID:      user.ID,
			Name:        user.Name,
			Role:        user.Role,
			TotalEarned: edge.TotalEarned,
			OrdersCount: edge.OrdersCount,
		}
		if depth > 1 {
			children, err := s.buildSubtree(user.ID, depth-1)
			if err != nil {
				return nil, err
			}
			node.Children = children
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// GetLedgerSummary 聚合师傅看板摘要，短 TTL 缓存。
func (s *NetworkService) GetLedgerSummary(ctx context.Context, masterID uint) (*LedgerSummary, error) {
	user, err := s.userRepo.GetByID(masterID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	cacheKey := constants.CacheKeyLedgerSummary + fmt.Sprint(masterID)
	var cached LedgerSummary
	hit, err := cache.GetJSON(ctx, cacheKey, &cached)
	if err != nil {
		logger.Warnw("read summary cache failed", "user_id", masterID, "error", err)
	}
	if hit {
		return &cached, nil
	}

	ledger, err := s.ledgerRepo.GetByUserID(masterID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		ledger = &models.MasterLedger{UserID: masterID}
	}

	referralsCount, err := s.referralRepo.CountByReferrer(masterID)
	if err != nil {
		return nil, err
	}
	structure, err := s.BuildTree(masterID, constants.ReferralLevelMax)
	if err != nil {
		return nil, err
	}
	recent, err := s.bonusRepo.ListRecentByUser(masterID, recentBonusLimit)
	if err != nil {
		return nil, err
	}
	stats, err := s.bonusRepo.SumAmountByUserAndStatus(masterID, "")
	if err != nil {
		return nil, err
	}

	summary := &LedgerSummary{
		UserID:           masterID,
		Name:             user.Name,
		ReferralsCount:   referralsCount,
		TotalEarnings:    ledger.TotalEarnings,
		TotalCommissions: ledger.TotalCommissions,
		AvailableBalance: ledger.AvailableBalance,
		WithdrawnAmount:  ledger.WithdrawnAmount,
		Rating:           ledger.Rating,
		Structure:        structure,
		RecentBonuses:    recent,
		BonusStats:       stats,
		GeneratedAt:      time.Now(),
	}
	if err := cache.SetJSON(ctx, cacheKey, summary, s.summaryTTL); err != nil {
		logger.Warnw("write summary cache failed", "user_id", masterID, "error", err)
	}
	return summary, nil
}

func (s *NetworkService) invalidateNetworkCache(referrerID uint) {
	err := cache.Del(context.Background(),
		constants.CacheKeyReferralTree+fmt.Sprint(referrerID),
		constants.CacheKeyLedgerSummary+fmt.Sprint(referrerID))
	if err != nil {
		logger.Warnw("invalidate network cache failed", "referrer_id", referrerID, "error", err)
	}
}
