package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// Limiter decides whether key may make another request in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RejectionRecorder counts rejected requests, satisfied by observability.Prom.
type RejectionRecorder interface {
	IncRateLimited(route string)
}

// MemoryLimiter is a fixed window counter kept in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	clients map[string]*clientBucket
	now     func() time.Time
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*clientBucket),
		now:     time.Now,
	}
}

func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || now.After(b.windowEnd) {
		rl.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(rl.window),
		}
		rl.sweep(now)
		return true, 0, nil
	}

	if b.count >= rl.limit {
		return false, b.windowEnd.Sub(now), nil
	}

	b.count++
	return true, 0, nil
}

// sweep drops expired buckets once the map grows, so idle clients don't pile up.
func (rl *MemoryLimiter) sweep(now time.Time) {
	if len(rl.clients) < 1024 {
		return
	}
	for k, b := range rl.clients {
		if now.After(b.windowEnd) {
			delete(rl.clients, k)
		}
	}
}

// RateLimit enforces l for a derived key. Limiter failures let the request
// through: a broken limiter must not take registrations down with it.
func RateLimit(l Limiter, keyFn func(*gin.Context) string, rec RejectionRecorder, log *slog.Logger) gin.HandlerFunc {
	return RateLimitWith(l, keyFn, rec, log, rejectJSON)
}

// RateLimitWith is RateLimit with a custom answer for rejected requests.
// Retry-After is already set when reject runs, the chain is aborted after it.
func RateLimitWith(
	l Limiter,
	keyFn func(*gin.Context) string,
	rec RejectionRecorder,
	log *slog.Logger,
	reject func(c *gin.Context, retryAfter time.Duration),
) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		allowed, retryAfter, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.WarnContext(c.Request.Context(), "rate limiter unavailable", "err", err)
			c.Next()
			return
		}

		if !allowed {
			if retryAfter < 0 {
				retryAfter = 0
			}

			if rec != nil {
				rec.IncRateLimited(c.FullPath())
			}

			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Round(time.Second).Seconds())))
			reject(c, retryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}

func rejectJSON(c *gin.Context, _ time.Duration) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "Too Many Requests",
		"message": "Too many requests. Please try again shortly.",
	})
}

// KeyByIP rate limits per client IP and route.
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c) + ":" + c.FullPath()
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
