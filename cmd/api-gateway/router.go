// Package main 是应用程序入口
package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/linzhaoyu/referral-mall-backend/internal/common/cache"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/config"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/jwt"
	"github.com/linzhaoyu/referral-mall-backend/internal/common/metrics"
	adminHandler "github.com/linzhaoyu/referral-mall-backend/internal/handler/admin"
	orderHandler "github.com/linzhaoyu/referral-mall-backend/internal/handler/order"
	referralHandler "github.com/linzhaoyu/referral-mall-backend/internal/handler/referral"
	userHandler "github.com/linzhaoyu/referral-mall-backend/internal/handler/user"
	"github.com/linzhaoyu/referral-mall-backend/internal/middleware"
	"github.com/linzhaoyu/referral-mall-backend/internal/repository"
	"github.com/linzhaoyu/referral-mall-backend/internal/scheduler"
	orderService "github.com/linzhaoyu/referral-mall-backend/internal/service/order"
	referralService "github.com/linzhaoyu/referral-mall-backend/internal/service/referral"
	userService "github.com/linzhaoyu/referral-mall-backend/internal/service/user"
	"github.com/linzhaoyu/referral-mall-backend/pkg/notify"
)

// setupRouter 设置路由并组装后台调度器
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *scheduler.Scheduler {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&cfg.JWT)

	// 初始化仓储
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	mlmLevelRepo := repository.NewMlmLevelRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)

	// 佣金事件通知器
	var notifier notify.Notifier
	if cfg.MQTT.Enabled {
		mqttNotifier, err := notify.NewMQTTNotifier(&cfg.MQTT)
		if err != nil {
			logger.Warn("MQTT notifier unavailable, falling back to noop", zap.Error(err))
			notifier = notify.NewNopNotifier()
		} else {
			notifier = mqttNotifier
		}
	} else {
		notifier = notify.NewNopNotifier()
	}

	// 初始化服务
	lineageSvc := referralService.NewLineageService(userRepo)
	volumeSvc := referralService.NewVolumeService(lineageSvc, userRepo, orderRepo)
	commissionSvc := referralService.NewCommissionService(
		db, lineageSvc, userRepo, orderRepo, commissionRepo, mlmLevelRepo,
		notifier, cfg.Referral.Mode, cfg.Referral.MaxLevels,
	)
	preferenceSvc := referralService.NewPreferenceService(preferenceRepo)
	bindingSvc := referralService.NewBindingService(userRepo, lineageSvc, cfg.Referral.InviteBaseURL)
	analyzerSvc := referralService.NewAnalyzerService(
		userRepo, cache.NewRedisStore(redisClient), cfg.Referral.HealthCacheDuration(),
	)
	orderSvc := orderService.NewOrderService(orderRepo, userRepo, commissionSvc)
	userSvc := userService.NewUserService(userRepo, bindingSvc, jwtManager)

	// 初始化处理器
	userH := userHandler.NewHandler(userSvc)
	referralH := referralHandler.NewHandler(bindingSvc, lineageSvc, volumeSvc, commissionSvc, preferenceSvc)
	orderH := orderHandler.NewHandler(orderSvc, commissionSvc)
	adminH := adminHandler.NewHandler(analyzerSvc, commissionSvc, preferenceSvc, volumeSvc)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(middleware.CORS(&middleware.CORSConfig{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))
	r.Use(middleware.AccessLog(logger))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	if cfg.Metrics.Enabled {
		r.Use(metrics.GetMetrics().Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 公开接口（无需认证）
		public := v1.Group("")
		{
			public.POST("/users/register", userH.Register)
			public.POST("/users/login", userH.Login)
		}

		// 用户端接口（需要用户认证）
		user := v1.Group("")
		user.Use(middleware.UserAuth(jwtManager))
		{
			user.GET("/users/profile", userH.GetProfile)

			// 推荐网络
			user.POST("/referral/bind", referralH.Bind)
			user.GET("/referral/invite", referralH.GetInviteInfo)
			user.GET("/referral/ancestors", referralH.GetAncestors)
			user.GET("/referral/volume/group", referralH.GetGroupVolume)
			user.GET("/referral/volume/personal", referralH.GetPersonalVolume)
			user.GET("/referral/commissions", referralH.GetCommissions)
			user.GET("/referral/preferences", referralH.GetPreferences)
			user.PUT("/referral/preferences", referralH.UpdatePreferences)

			// 订单
			user.POST("/orders", orderH.Create)
			user.GET("/orders", orderH.List)
			user.GET("/orders/:id", orderH.Get)
			user.POST("/orders/:id/pay", orderH.Pay)
			user.POST("/orders/:id/cancel", orderH.Cancel)
			user.GET("/orders/:id/commissions", orderH.GetCommissions)
		}
	}

	// 管理后台 API（需要管理员认证）
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(jwtManager))
	{
		admin.GET("/network/health", adminH.GetNetworkHealth)
		admin.POST("/network/health/refresh", adminH.RefreshNetworkHealth)
		admin.GET("/users/:id/volume", adminH.GetUserGroupVolume)
		admin.PUT("/users/:id/preferences/lock", adminH.SetPreferenceLock)
		admin.GET("/mlm-levels", adminH.ListMlmLevels)
		admin.PUT("/mlm-levels", adminH.UpsertMlmLevel)
	}

	// 后台定时任务
	tasks := scheduler.NewTaskHandler(orderRepo, analyzerSvc)
	sched := scheduler.NewScheduler()
	sched.AddTask("network_health_refresh", cfg.Referral.HealthCacheDuration(), tasks.RefreshNetworkHealth)
	sched.AddTask("expire_stale_orders", 5*time.Minute, tasks.ExpireStaleOrders)

	return sched
}
