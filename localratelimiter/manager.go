package localratelimiter

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/llmgate/promptcoder/internal/config"
)

const idleLimiterTTL = time.Minute

// RateLimiter holds one token bucket per client IP.
type RateLimiter struct {
	clientLimiters map[string]*limiterEntry
	mutex          sync.Mutex
	limit          rate.Limit
	burst          int
	now            func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter from config. The cleanup goroutine stops
// when ctx is done.
func NewRateLimiter(ctx context.Context, rateLimitConfig config.RateLimitConfig) *RateLimiter {
	burst := rateLimitConfig.Burst
	if burst <= 0 {
		burst = int(rateLimitConfig.PerSecond * 2)
	}
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		clientLimiters: make(map[string]*limiterEntry),
		limit:          rate.Limit(rateLimitConfig.PerSecond),
		burst:          burst,
		now:            time.Now,
	}
	go rl.cleanupOldLimiters(ctx)
	return rl
}

// Enabled is false when no per-second rate is configured.
func (rl *RateLimiter) Enabled() bool {
	return rl.limit > 0
}

// RateLimiterMiddleware returns a gin.HandlerFunc that enforces rate limiting
func (rl *RateLimiter) RateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Enabled() {
			c.Next()
			return
		}

		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) Allow(clientKey string) bool {
	rl.mutex.Lock()
	entry := rl.getLimiter(clientKey)
	rl.mutex.Unlock()
	return entry.limiter.AllowN(rl.now(), 1)
}

// caller holds rl.mutex
func (rl *RateLimiter) getLimiter(key string) *limiterEntry {
	if entry, exists := rl.clientLimiters[key]; exists {
		entry.lastSeen = rl.now()
		return entry
	}

	entry := &limiterEntry{
		limiter:  rate.NewLimiter(rl.limit, rl.burst),
		lastSeen: rl.now(),
	}
	rl.clientLimiters[key] = entry

	return entry
}

func (rl *RateLimiter) cleanupOldLimiters(ctx context.Context) {
	ticker := time.NewTicker(idleLimiterTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()
	for key, entry := range rl.clientLimiters {
		if rl.now().Sub(entry.lastSeen) > idleLimiterTTL {
			delete(rl.clientLimiters, key)
		}
	}
}
