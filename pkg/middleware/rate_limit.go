package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/dataroom/pkg/configs"
)

// RateLimitMiddleware 返回一个基于配置的限流中间件.
// user 维度需要放在 AuthMiddleware 之后，未认证请求退化为按 IP.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	// 全局 limiter
	if cfg.Key == configs.RateLimitGlobal || cfg.Key == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}

			c.Next()
		}
	}

	limiters := newLimiterSet(cfg)

	return func(c *gin.Context) {
		key := "ip:" + clientIP(c)
		if cfg.Key == configs.RateLimitUser {
			if uid := GetUserID(c); uid != 0 {
				key = "user:" + strconv.FormatUint(uint64(uid), 10)
			}
		}

		if !limiters.get(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "rate limit exceeded, request too frequent, please try again later"})

			return
		}

		c.Next()
	}
}

// limiterSet 按键保存令牌桶，数量超过 MaxKeys 时整体清空.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	maxKeys  int
}

func newLimiterSet(cfg configs.RateLimitConfig) *limiterSet {
	maxKeys := cfg.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 10000
	}

	return &limiterSet{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(cfg.RPS),
		burst:    cfg.Burst,
		maxKeys:  maxKeys,
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.limiters[key]; ok {
		return l
	}

	if len(s.limiters) >= s.maxKeys {
		s.limiters = make(map[string]*rate.Limiter)
	}

	l := rate.NewLimiter(s.limit, s.burst)
	s.limiters[key] = l

	return l
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		// 进一步尝试从 RemoteAddr
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	if ip == "" {
		ip = "unknown"
	}

	return ip
}
