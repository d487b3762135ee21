package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/mahjong-game/internal/config"
	"github.com/wfunc/mahjong-game/internal/game"
	"github.com/wfunc/mahjong-game/internal/middleware"
	"github.com/wfunc/mahjong-game/internal/repository"
	"github.com/wfunc/mahjong-game/internal/service"
	ws "github.com/wfunc/mahjong-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	repos          *repository.Manager
	services       *service.Services
	gameService    *game.Service
	hub            *ws.Hub
	authHandler    *AuthHandler
	walletHandler  *WalletHandler
	mahjongHandler *MahjongHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, svcConfig *service.Config, gameConfig *config.MahjongConfig, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// 创建服务
	services := service.NewServices(db, svcConfig, log)

	// WebSocket中心与牌局事件推送
	hub := ws.NewHub(log)
	notifier := ws.NewGameNotifier(hub, log)

	// 牌局服务
	repos := repository.NewManager(db)
	gameService := game.NewService(&game.ServiceConfig{
		Logger:         log,
		Repos:          repos,
		Notifier:       notifier,
		ThinkDelay:     gameConfig.ThinkDelay,
		ReactionWindow: gameConfig.ReactionWindow,
	})

	// 创建处理器
	authHandler := NewAuthHandler(services.Auth, services.User)
	walletHandler := NewWalletHandler(db, log)
	mahjongHandler := NewMahjongHandler(gameService, services.User, log)
	wsHandler := NewWebSocketHandler(hub, log)

	// 创建中间件
	authMiddleware := middleware.NewAuthMiddleware(services.Auth)

	router := &Router{
		engine:         engine,
		repos:          repos,
		services:       services,
		gameService:    gameService,
		hub:            hub,
		authHandler:    authHandler,
		walletHandler:  walletHandler,
		mahjongHandler: mahjongHandler,
		wsHandler:      wsHandler,
		authMiddleware: authMiddleware,
		log:            log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// Swagger文档（-tags swagger时启用）
	registerSwaggerRoutes(r.engine)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			// 需要认证的路由
			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.POST("/logout", r.authHandler.Logout)
				authRequired.GET("/profile", r.authHandler.GetProfile)
				authRequired.PUT("/profile", r.authHandler.UpdateProfile)
				authRequired.PUT("/password", r.authHandler.UpdatePassword)
			}
		}

		// 麻将牌局路由（需要认证）
		mahjong := v1.Group("/mahjong")
		mahjong.Use(r.authMiddleware.RequireAuth())
		{
			mahjong.POST("/rooms", r.mahjongHandler.CreateRoom)
			mahjong.GET("/state", r.mahjongHandler.GetState)
			mahjong.POST("/discard", r.mahjongHandler.Discard)
			mahjong.POST("/react", r.mahjongHandler.React)
			mahjong.POST("/zimo", r.mahjongHandler.Zimo)
			mahjong.POST("/gang", r.mahjongHandler.ConcealedGang)
			mahjong.POST("/next", r.mahjongHandler.NextRound)
			mahjong.GET("/result", r.mahjongHandler.LastResult)
			mahjong.POST("/leave", r.mahjongHandler.LeaveRoom)
		}

		// 排行榜公开可读
		v1.GET("/mahjong/leaderboard", r.mahjongHandler.Leaderboard)

		// 钱包相关路由（需要认证）
		wallet := v1.Group("/wallet")
		wallet.Use(r.authMiddleware.RequireAuth())
		{
			wallet.GET("/balance", r.walletHandler.GetBalance)
			wallet.POST("/recharge", r.walletHandler.Recharge)
			wallet.GET("/transactions", r.walletHandler.GetTransactions)
			wallet.GET("/statistics", r.walletHandler.GetStatistics)
		}
	}

	// WebSocket路由
	ws := r.engine.Group("/ws")
	ws.Use(r.authMiddleware.RequireAuth())
	{
		ws.GET("/game", r.wsHandler.GameWebSocket)
	}

	// 在线统计
	r.engine.GET("/ws/online", r.wsHandler.GetOnlineCount)

	// 静态文件服务
	r.engine.Static("/static", "./static")

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	if err := r.repos.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
		"rooms":   r.gameService.RoomCount(),
		"online":  r.hub.GetOnlineCount(),
	})
}

// Hub 返回WebSocket中心，由调用方启动事件循环
func (r *Router) Hub() *ws.Hub {
	return r.hub
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
