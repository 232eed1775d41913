// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one bucket
// per client and opportunistic garbage collection of idle buckets. Limits are
// process-local: each replica (or each warm serverless instance) enforces its
// own budget.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByIP keys buckets by the client IP as resolved by Gin (honoring the
// engine's trusted proxy settings).
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

// KeyByHeaderOrIP prefers a caller-supplied identity header (for example an
// API gateway's consumer ID) and falls back to the client IP.
func KeyByHeaderOrIP(header string) keyFunc {
	return func(c *gin.Context) string {
		if header != "" {
			if v := c.GetHeader(header); v != "" {
				return "hdr:" + v
			}
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter.
// It is safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// codeRateLimited tags rate-limit log lines, mirroring the snake_case codes
// the handlers log for their own failures.
const codeRateLimited = "too_many_requests"

// gcEvery is the number of bucket lookups between idle sweeps.
const gcEvery = 5000

// NewRateLimiter constructs a RateLimiter refilling rps tokens per second with
// the given burst. A burst <= 0 is coerced to 1; a nil keyFn keys by IP.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByIP()
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the limiter for key, creating it if absent.
// The idle sweep runs before the lookup so a stale bucket for key is also
// evicted and recreated fresh.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.cleanupN++
	if rl.cleanupN >= gcEvery {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// size reports the number of tracked buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Handler returns a Gin middleware that enforces the per-key limits.
//
// CORS preflights are never limited. A denied request is answered with
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: 1
//	{"error":"rate limit exceeded"}
//
// which keeps the error envelope of the lookup endpoint.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}

		rateLimited.Inc()
		LoggerFrom(c).Warn().
			Str("code", codeRateLimited).
			Str("client_ip", c.ClientIP()).
			Msg("rate limit exceeded")
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}
