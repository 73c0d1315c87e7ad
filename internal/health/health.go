package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"tradyfit/backend/internal/storage"
)

const checkTimeout = 3 * time.Second

// Pinger 可探测连通性的外部依赖（Redis、PostgreSQL 连接池）
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
	extra  map[string]Pinger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(store storage.Store, logger *zap.Logger) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
		extra:  make(map[string]Pinger),
	}

	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(10000))
	hc.health.AddReadinessCheck("database", healthcheck.Timeout(hc.store.Health, checkTimeout))

	return hc
}

// AddDependency 注册额外的就绪检查
func (hc *HealthChecker) AddDependency(name string, p Pinger) {
	hc.extra[name] = p
	hc.health.AddReadinessCheck(name, PingCheck(p))
}

// PingCheck 把 Pinger 包装为 healthcheck.Check
func PingCheck(p Pinger) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()
		return p.Ping(ctx)
	}
}

// LiveHandler 存活检查处理器
func (hc *HealthChecker) LiveHandler() http.Handler {
	return http.HandlerFunc(hc.health.LiveEndpoint)
}

// ReadyHandler 就绪检查处理器
func (hc *HealthChecker) ReadyHandler() http.Handler {
	return http.HandlerFunc(hc.health.ReadyEndpoint)
}

// CheckHealth 执行健康检查，返回每个依赖的状态
func (hc *HealthChecker) CheckHealth() map[string]string {
	results := make(map[string]string)

	if err := hc.store.Health(); err != nil {
		hc.logger.Warn("database health check failed", zap.Error(err))
		results["database"] = fmt.Sprintf("ERROR: %v", err)
	} else {
		results["database"] = "OK"
	}

	for name, p := range hc.extra {
		if err := PingCheck(p)(); err != nil {
			hc.logger.Warn("dependency health check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = fmt.Sprintf("ERROR: %v", err)
		} else {
			results[name] = "OK"
		}
	}

	results["timestamp"] = time.Now().Format(time.RFC3339)
	return results
}

// Healthy 所有依赖都正常时返回 true
func Healthy(results map[string]string) bool {
	for name, status := range results {
		if name == "timestamp" {
			continue
		}
		if status != "OK" {
			return false
		}
	}
	return true
}
