package router

import (
	"github.com/gin-gonic/gin"

	"github.com/xiuda-next/internal/config"
	adminhandlers "github.com/xiuda-next/internal/http/handlers/admin"
	publichandlers "github.com/xiuda-next/internal/http/handlers/public"
	"github.com/xiuda-next/internal/http/response"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/provider"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.Z()
	r := gin.New()

	publicHandler := publichandlers.NewHandler(
		c.AuthService,
		c.CommissionService,
		c.PayoutService,
		c.NetworkService,
	)
	adminHandler := adminhandlers.NewHandler(c.CommissionService)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware())

	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	apiV1 := r.Group("/api/v1")
	{
		// 支付网关回调
		payments := apiV1.Group("/payments")
		{
			payments.POST("/notify", publicHandler.PaymentNotify)
		}

		// 用户认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", publicHandler.Login)
		}

		// 用户接口（需鉴权）
		me := apiV1.Group("/me", JWTAuthMiddleware(c.AuthService, c.UserRepo))
		{
			me.GET("/referrals/dashboard", publicHandler.GetReferralDashboard)
			me.GET("/referrals/tree", publicHandler.GetReferralTree)
			me.POST("/referrals/preview", publicHandler.PreviewCommissions)
			me.POST("/referrals/bind", publicHandler.BindReferrer)
			me.GET("/bonuses", publicHandler.ListMyBonuses)
			me.POST("/payouts", publicHandler.RequestPayout)
		}

		// 管理端（需管理员角色）
		admin := apiV1.Group("/admin",
			JWTAuthMiddleware(c.AuthService, c.UserRepo),
			AdminOnlyMiddleware())
		{
			admin.GET("/bonuses", adminHandler.ListBonuses)
			admin.POST("/bonuses/:id/approve", adminHandler.ApproveBonus)
		}
	}
	return r
}
