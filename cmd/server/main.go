package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradyfit/backend/internal/auth"
	jwtpkg "tradyfit/backend/internal/auth/jwt"
	"tradyfit/backend/internal/config"
	"tradyfit/backend/internal/health"
	"tradyfit/backend/internal/logger"
	"tradyfit/backend/internal/monitoring"
	"tradyfit/backend/internal/service"
	"tradyfit/backend/internal/smtp"
	"tradyfit/backend/internal/storage"
	"tradyfit/backend/internal/storage/hybrid"
	"tradyfit/backend/internal/storage/memory"
	"tradyfit/backend/internal/storage/postgres"
	"tradyfit/backend/internal/storage/redis"
	sqlstore "tradyfit/backend/internal/storage/sql"
	httptransport "tradyfit/backend/internal/transport/http"
	"tradyfit/backend/internal/websocket"
)

// main 启动 HTTP API、WebSocket 推送与可选的 SMTP 回复网关。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting tradyfit server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	store, cache, cleanup, err := initializeStorage(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer cleanup()

	metrics := monitoring.NewMetrics()
	healthChecker := health.NewHealthChecker(store, log)
	if cache != nil {
		healthChecker.AddDependency("redis", cache)
	}

	// PostgreSQL 额外使用 pgx 连接池做就绪检查
	if cfg.Database.Type == "postgres" {
		probe, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Warn("postgres readiness probe unavailable", zap.Error(err))
		} else {
			defer probe.Close()
			healthChecker.AddDependency("postgres", probe)
		}
	}

	// 初始化服务层
	jwtManager := jwtpkg.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessExpiry)
	authService := auth.NewService(store, jwtManager)
	messageService := service.NewMessageService(store, log)
	itemService := service.NewItemService(store)

	wsHub := websocket.NewHub(cfg.CORS.AllowedOrigins, jwtManager, log)
	messageService.SetNotifier(wsHub)

	var (
		smtpServer     *gosmtp.Server
		replyAddresses httptransport.ReplyAddresser
	)
	if cfg.SMTP.Enabled {
		limiter := smtp.NewConnectionLimiter(cfg.SMTP.MaxConns, cfg.SMTP.ConnRate)
		backend := smtp.NewBackend(messageService, store, store, jwtManager, cfg.SMTP.Domain, limiter, log.Named("smtp"))
		backend.SetMetrics(metrics)
		smtpServer = smtp.NewServer(backend, cfg.SMTP.BindAddr)
		replyAddresses = backend
	}

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		AuthService:    authService,
		MessageService: messageService,
		ItemService:    itemService,
		JWTManager:     jwtManager,
		WebSocketHub:   wsHub,
		Metrics:        metrics,
		HealthChecker:  healthChecker,
		ReplyAddresses: replyAddresses,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	if smtpServer != nil {
		group.Go(func() error {
			log.Info("starting SMTP reply gateway",
				zap.String("address", cfg.SMTP.BindAddr),
				zap.String("domain", cfg.SMTP.Domain),
			)
			if err := smtpServer.ListenAndServe(); err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
				log.Error("SMTP server error", zap.Error(err))
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		log.Info("starting WebSocket hub")
		wsHub.Run(groupCtx)
		return nil
	})

	// 优雅关闭
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if smtpServer != nil {
			if err := smtpServer.Shutdown(shutdownCtx); err != nil {
				log.Warn("SMTP server shutdown warning", zap.Error(err))
			}
		}

		log.Info("servers stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// initializeStorage 按配置选择存储：未配置数据库时使用内存存储，
// 配置了 Redis 时在 SQL 存储外包一层计数/列表缓存。
func initializeStorage(cfg *config.Config, log *zap.Logger) (storage.Store, *redis.Client, func(), error) {
	if cfg.Database.Type == "" || cfg.Database.DSN == "" {
		log.Info("using memory storage (development mode)")
		return memory.NewStore(), nil, func() {}, nil
	}

	log.Info("initializing database storage",
		zap.String("database_type", cfg.Database.Type),
		zap.String("redis_address", cfg.Redis.Address),
	)

	sqlStore, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open %s store: %w", cfg.Database.Type, err)
	}
	if err := sqlStore.Migrate(); err != nil {
		sqlStore.Close()
		return nil, nil, nil, fmt.Errorf("migrate schema: %w", err)
	}

	if cfg.Redis.Address == "" {
		return sqlStore, nil, func() { sqlStore.Close() }, nil
	}

	client, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Warn("redis unavailable, continuing without cache", zap.Error(err))
		return sqlStore, nil, func() { sqlStore.Close() }, nil
	}

	store := hybrid.NewStore(sqlStore, redis.NewCache(client, cfg.Redis.TTL), log)
	return store, client, func() {
		client.Close()
		sqlStore.Close()
	}, nil
}
