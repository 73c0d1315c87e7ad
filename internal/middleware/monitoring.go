package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tradyfit/backend/internal/monitoring"
)

// CategoryKey handler 写入的通知分类，供业务指标使用
const CategoryKey = "notificationCategory"

// MonitoringMiddleware 监控中间件
type MonitoringMiddleware struct {
	metrics *monitoring.Metrics
}

// NewMonitoringMiddleware 创建监控中间件
func NewMonitoringMiddleware(metrics *monitoring.Metrics) *MonitoringMiddleware {
	return &MonitoringMiddleware{metrics: metrics}
}

// HTTPMetrics HTTP 指标中间件
func (mm *MonitoringMiddleware) HTTPMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		mm.metrics.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)

		if c.Writer.Status() >= http.StatusInternalServerError {
			mm.metrics.RecordError("http_error", "http")
		}
	}
}

// BusinessMetrics 根据路由记录业务指标，仅统计成功的请求
func (mm *MonitoringMiddleware) BusinessMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		switch c.Request.Method + " " + c.FullPath() {
		case "POST /msg/create/:id":
			mm.metrics.RecordMessageSent("web")
		case "POST /msg/:id":
			mm.metrics.RecordMessageSent("reply")
		case "GET /msg/:id":
			mm.metrics.RecordMessageRead()
		case "POST /auth/register":
			mm.metrics.RecordUserRegistered()
		case "POST /notifications":
			mm.metrics.RecordNotificationRequest(c.GetString(CategoryKey))
		}
	}
}
