// internal/middleware/rate_limit.go
package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/shoplane/ecommerce-backend/internal/utils"
)

type rateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

func newRateLimiter(r rate.Limit, burst int) *rateLimiter {
	rl := &rateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// cleanup drops idle per-IP limiters so the map does not grow without
// bound.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(10 * time.Minute)
		rl.mu.Lock()
		for key, limiter := range rl.limiters {
			if limiter.Tokens() >= float64(rl.burst) {
				delete(rl.limiters, key)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getLimiter(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, 429, "RATE_LIMITED", "Too many requests", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware is the general per-IP limit for read traffic.
func RateLimitMiddleware() gin.HandlerFunc {
	return newRateLimiter(rate.Limit(10), 20).middleware()
}

// AuthRateLimitMiddleware throttles credential endpoints hard.
func AuthRateLimitMiddleware() gin.HandlerFunc {
	return newRateLimiter(rate.Limit(1), 5).middleware()
}

// UploadRateLimitMiddleware covers the multipart write endpoints,
// where a single request can fan out several blob uploads.
func UploadRateLimitMiddleware() gin.HandlerFunc {
	return newRateLimiter(rate.Limit(0.5), 3).middleware()
}
