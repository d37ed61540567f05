package provider

import (
	"time"

	"github.com/xiuda-next/internal/cache"
	"github.com/xiuda-next/internal/config"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/models"
	"github.com/xiuda-next/internal/queue"
	"github.com/xiuda-next/internal/repository"
	"github.com/xiuda-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo     repository.UserRepository
	OrderRepo    repository.OrderRepository
	ReferralRepo repository.ReferralRepository
	LedgerRepo   repository.LedgerRepository
	BonusRepo    repository.BonusRepository

	// Services
	AuthService       *service.AuthService
	CommissionService *service.CommissionService
	PayoutService     *service.PayoutService
	NetworkService    *service.NetworkService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.BonusRepo = repository.NewBonusRepository(db)
}

func (c *Container) initServices() {
	var notifier service.EventNotifier = service.NoopNotifier{}
	if c.QueueClient.Enabled() {
		notifier = service.NewQueueNotifier(c.QueueClient)
	}

	calculator := service.NewCommissionCalculator(
		c.UserRepo,
		c.Config.Referral.RateTable(),
		c.Config.Referral.HopCap,
	)

	c.AuthService = service.NewAuthService(c.UserRepo, c.Config.JWT)
	c.CommissionService = service.NewCommissionService(
		c.LedgerRepo,
		c.BonusRepo,
		c.ReferralRepo,
		c.UserRepo,
		c.OrderRepo,
		calculator,
		notifier,
	)
	c.NetworkService = service.NewNetworkService(
		c.ReferralRepo,
		c.UserRepo,
		c.LedgerRepo,
		c.BonusRepo,
		notifier,
		time.Duration(c.Config.Referral.SummaryTTLSeconds)*time.Second,
	)
	c.CommissionService.SetTreeReader(c.NetworkService)
	c.PayoutService = service.NewPayoutService(c.LedgerRepo, c.BonusRepo, notifier)
}

// Close 释放容器持有的资源
func (c *Container) Close() {
	if c.QueueClient != nil {
		if err := c.QueueClient.Close(); err != nil {
			logger.Warnw("close queue client failed", "error", err)
		}
	}
}
