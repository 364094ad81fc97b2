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
	"github.com/redis/go-redis/v9"
)

// CounterStore counts hits per key within a fixed window and reports the
// count and the window deadline.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, windowEnd time.Time, err error)
}

type RateLimiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	log    *slog.Logger
}

func NewRateLimiter(store CounterStore, limit int, window time.Duration, log *slog.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		log:    log,
	}
}

// Middleware enforces the limit for a derived key. On counter-store failure
// it fails open; rejecting logins because Redis is down is the worse outage.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = clientIP(c)
		}

		count, windowEnd, err := rl.store.Incr(c.Request.Context(), key, rl.window)

		if err != nil {
			rl.log.Warn("rate limiter unavailable, allowing request", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			retryAfter := int(time.Until(windowEnd).Seconds())

			if retryAfter < 0 {
				retryAfter = 0
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many requests. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// MemoryCounters is the in-process fallback when no Redis address is
// configured. Fixed windows per key, pruned lazily on access.
type MemoryCounters struct {
	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	count     int
	windowEnd time.Time
}

func NewMemoryCounters() *MemoryCounters {
	return &MemoryCounters{buckets: make(map[string]*bucket)}
}

func (m *MemoryCounters) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]

	if !ok || now.After(b.windowEnd) {
		b = &bucket{count: 0, windowEnd: now.Add(window)}
		m.buckets[key] = b
	}

	b.count++

	return b.count, b.windowEnd, nil
}

// RedisCounters shares windows across instances via INCR + first-hit EXPIRE.
type RedisCounters struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisCounters(rdb *redis.Client, prefix string) *RedisCounters {
	return &RedisCounters{rdb: rdb, prefix: prefix}
}

func (r *RedisCounters) Incr(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	k := r.prefix + key

	count, err := r.rdb.Incr(ctx, k).Result()

	if err != nil {
		return 0, time.Time{}, err
	}

	if count == 1 {
		if err := r.rdb.Expire(ctx, k, window).Err(); err != nil {
			return 0, time.Time{}, err
		}
	}

	ttl, err := r.rdb.TTL(ctx, k).Result()

	if err != nil || ttl < 0 {
		ttl = window
	}

	return int(count), time.Now().Add(ttl), nil
}
