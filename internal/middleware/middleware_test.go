package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tradyfit/backend/internal/auth/jwt"
	"tradyfit/backend/internal/monitoring"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(manager *jwt.Manager) *gin.Engine {
	router := gin.New()
	auth := NewJWTAuth(manager, zap.NewNop())
	router.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	})
	return router
}

func TestJWTAuth_RequireAuth(t *testing.T) {
	manager := jwt.NewManager("0123456789abcdef0123456789abcdef", "test", time.Minute)
	router := newAuthRouter(manager)

	token, err := manager.GenerateAccessToken(42, "u@example.com")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"id":42}`, rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: token})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestIPRateLimiter(t *testing.T) {
	metrics := monitoring.NewMetrics()
	limiter := NewIPRateLimiter(0.001, 2, metrics)

	router := gin.New()
	router.POST("/notifications", limiter.Middleware("notifications"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/notifications", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RateLimitHits.WithLabelValues("notifications")))

	// 其它 IP 不受影响
	req := httptest.NewRequest(http.MethodPost, "/notifications", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryHandler(t *testing.T) {
	panics := 0
	router := gin.New()
	router.Use(RequestID(), RecoveryHandler(zap.NewNop(), func() { panics++ }))
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, panics)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestBodySizeLimit(t *testing.T) {
	router := gin.New()
	router.POST("/", BodySizeLimit(4), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.ContentLength = 10
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestIPRateLimiter_SweepsIdleVisitorsPeriodically(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1, nil)
	start := limiter.lastSweep

	limiter.get("10.0.0.1", start.Add(time.Second))
	limiter.get("10.0.0.2", start.Add(2*time.Second))
	require.Len(t, limiter.visitors, 2)

	// 已经空闲，但还没到清理时间，不做全表扫描
	limiter.get("10.0.0.3", start.Add(limiter.sweepEvery-time.Millisecond))
	assert.Len(t, limiter.visitors, 3)
	assert.Equal(t, start, limiter.lastSweep)

	// 10.0.0.3 在清理时刚访问过，保留
	later := start.Add(limiter.idle + 30*time.Second)
	limiter.get("10.0.0.3", later)
	assert.Equal(t, later, limiter.lastSweep)
	assert.Len(t, limiter.visitors, 1)
	assert.Contains(t, limiter.visitors, "10.0.0.3")
}
