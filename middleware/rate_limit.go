package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/blogapi/utils"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// IPRateLimiter hands out one token bucket per client IP.
type IPRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rateLimiter
	now      func() time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with a burst of half that.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	perMinute = max(perMinute, 1)
	return &IPRateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    max(perMinute/2, 1),
		limiters: map[string]*rateLimiter{},
		now:      time.Now,
	}
}

// Allow consumes one token from the bucket of key.
func (l *IPRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.cleanupExpiredLocked(now)

	rl, ok := l.limiters[key]
	if !ok {
		rl = &rateLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = rl
	}
	rl.expires = now.Add(limiterIdleTTL)
	return rl.limiter.AllowN(now, 1)
}

func (l *IPRateLimiter) cleanupExpiredLocked(now time.Time) {
	for key, rl := range l.limiters {
		if now.After(rl.expires) {
			delete(l.limiters, key)
		}
	}
}

// RateLimitMiddleware applies a simple IP based rate limiter using a token bucket.
// A non-positive perMinute disables limiting.
func RateLimitMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}
	limiter := NewIPRateLimiter(perMinute)
	return func(ctx *gin.Context) {
		if !limiter.Allow(ctx.ClientIP()) {
			utils.Error(ctx, http.StatusTooManyRequests, "Too many requests")
			return
		}
		ctx.Next()
	}
}
