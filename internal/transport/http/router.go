package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tradyfit/backend/internal/auth"
	jwtpkg "tradyfit/backend/internal/auth/jwt"
	"tradyfit/backend/internal/config"
	"tradyfit/backend/internal/health"
	"tradyfit/backend/internal/middleware"
	"tradyfit/backend/internal/monitoring"
	"tradyfit/backend/internal/service"
	"tradyfit/backend/internal/urls"
	"tradyfit/backend/internal/websocket"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	AuthService    *auth.Service
	MessageService *service.MessageService
	ItemService    *service.ItemService
	JWTManager     *jwtpkg.Manager
	WebSocketHub   *websocket.Hub        // 可选
	Metrics        *monitoring.Metrics   // 可选
	HealthChecker  *health.HealthChecker // 可选
	ReplyAddresses ReplyAddresser        // 可选，启用 SMTP 回复网关时设置
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	var onPanic func()
	if deps.Metrics != nil {
		onPanic = deps.Metrics.RecordPanic
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.RecoveryHandler(log, onPanic))
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	if deps.Metrics != nil {
		mm := middleware.NewMonitoringMiddleware(deps.Metrics)
		router.Use(mm.HTTPMetrics(), mm.BusinessMetrics())
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	if len(corsConfig.AllowOrigins) > 0 {
		router.Use(gincors.New(corsConfig))
	}

	authHandler := NewAuthHandler(deps.AuthService, !deps.Config.Log.Development, log)
	messageHandler := NewMessageHandler(deps.MessageService, deps.ItemService, deps.ReplyAddresses, log)
	notificationsHandler := NewNotificationsHandler(deps.MessageService, log)

	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, log)
	limiter := middleware.NewIPRateLimiter(
		deps.Config.RateLimit.RequestsPerSecond,
		deps.Config.RateLimit.Burst,
		deps.Metrics,
	)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		if deps.HealthChecker == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		results := deps.HealthChecker.CheckHealth()
		status := http.StatusOK
		if !health.Healthy(results) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, results)
	})
	if deps.HealthChecker != nil {
		router.GET("/health/live", gin.WrapH(deps.HealthChecker.LiveHandler()))
		router.GET("/health/ready", gin.WrapH(deps.HealthChecker.ReadyHandler()))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// ========== Auth Routes ==========
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// ========== Message Routes ==========
	protected := router.Group("")
	protected.Use(jwtAuth.RequireAuth())
	{
		protected.POST(urls.Pattern(urls.Notifications), limiter.Middleware("notifications"), notificationsHandler.List)
		protected.POST(urls.Pattern(urls.MessageCreate), messageHandler.Create)
		protected.GET(urls.Pattern(urls.MessageDetail), messageHandler.Get)
		protected.POST(urls.Pattern(urls.MessageDetail), messageHandler.Reply)
		protected.POST("/items", messageHandler.CreateItem)
	}

	// ========== WebSocket Routes ==========
	if deps.WebSocketHub != nil {
		router.GET("/ws", websocket.HandleWebSocket(deps.WebSocketHub))
	}

	return router
}
