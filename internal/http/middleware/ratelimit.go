package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to a rate-limit bucket.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP buckets by "user:<id>" when an identity is present and by
// "ip:<addr>" otherwise.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		if h := c.GetHeader("X-User-ID"); h != "" {
			return "user:" + h
		}
		return "ip:" + c.ClientIP()
	}
}

// OnlyPOST limits the calls that reach the generator or the simulator and
// lets cheap reads through.
func OnlyPOST(c *gin.Context) bool { return c.Request.Method == http.MethodPost }

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. Idle buckets are
// evicted opportunistically every sweepEvery lookups.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc
	apply func(*gin.Context) bool

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
}

const sweepEvery = 5000

// NewRateLimiter builds a limiter. burst <= 0 becomes 1. A nil apply limits
// every request.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc, apply func(*gin.Context) bool) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if apply == nil {
		apply = func(*gin.Context) bool { return true }
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		apply:    apply,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// limiter returns the bucket for key. The sweep runs before the lookup so a
// stale bucket for key itself is replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler rejects over-limit requests with 429 and Retry-After: 1.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.apply(c) || rl.limiter(rl.keyFn(c), time.Now()).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": RequestIDFrom(c),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
