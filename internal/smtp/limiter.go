package smtp

import (
	"sync"

	"golang.org/x/time/rate"
)

// ConnectionLimiter 限制并发连接数和新建连接速率。
type ConnectionLimiter struct {
	maxConns int
	current  int
	rate     *rate.Limiter
	mu       sync.Mutex
}

// NewConnectionLimiter 创建连接限制器，perSecond 为每秒允许的新连接数（令牌桶）。
func NewConnectionLimiter(maxConns int, perSecond float64) *ConnectionLimiter {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &ConnectionLimiter{
		maxConns: maxConns,
		rate:     rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Acquire 获取连接许可
func (l *ConnectionLimiter) Acquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current >= l.maxConns {
		return false
	}
	if !l.rate.Allow() {
		return false
	}
	l.current++
	return true
}

// Release 释放连接
func (l *ConnectionLimiter) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current > 0 {
		l.current--
	}
}

// Current 当前连接数
func (l *ConnectionLimiter) Current() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
