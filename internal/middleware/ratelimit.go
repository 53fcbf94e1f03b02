package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// Idle is how long a client's limiter is kept after its last request.
	Idle time.Duration
}

// RateLimiter hands out one token bucket per client IP. Buckets of idle
// clients expire from the cache.
type RateLimiter struct {
	cfg     RateLimiterConfig
	clients *cache.Cache
}

func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Idle <= 0 {
		cfg.Idle = 10 * time.Minute
	}
	return &RateLimiter{
		cfg:     cfg,
		clients: cache.New(cfg.Idle, 2*cfg.Idle),
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if v, ok := rl.clients.Get(key); ok {
		l := v.(*rate.Limiter)
		rl.clients.Set(key, l, cache.DefaultExpiration)
		return l
	}
	l := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	// Add fails if a concurrent request stored a limiter first; use that one.
	if err := rl.clients.Add(key, l, cache.DefaultExpiration); err != nil {
		if v, ok := rl.clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
