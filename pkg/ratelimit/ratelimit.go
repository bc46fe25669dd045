package ratelimit

import (
	"math"
	"strconv"
	"sync"

	"time-capsule/pkg/logger"
	"time-capsule/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxLimiters 超过该数量时清空，避免长期运行后无限增长
const maxLimiters = 10000

// Limiter 按客户端IP限流
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// New 创建限流器
func New(requestsPerSecond, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxLimiters {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow 判断 key 是否放行
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}

// Middleware gin 中间件
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !l.Allow(key) {
			logger.Warn("请求被限流",
				zap.String("ip", key),
				zap.String("path", c.Request.URL.Path),
			)
			c.Header("Retry-After", retryAfter(l.rate))
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}

// retryAfter 补充一个令牌所需的秒数（向上取整）
func retryAfter(r rate.Limit) string {
	if r <= 0 {
		return "60"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(r))))
}
