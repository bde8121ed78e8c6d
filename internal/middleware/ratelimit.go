package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig configures one limited route group.
type RateLimitConfig struct {
	// Name keys the counters, e.g. "create" or "follow".
	Name   string
	Limit  int
	Window time.Duration
	// Disabled skips limiting entirely; used in development and tests.
	Disabled bool
}

// CheckRateLimit counts a hit in a fixed Redis window.
// Returns true if allowed, false if limit exceeded.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, fmt.Errorf("redis client is nil")
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	var incr *redis.IntCmd
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return incr.Val() <= int64(limit), nil
}

// localLimiter holds in-process token buckets used while Redis is unavailable.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

func newLocalLimiter(limit int, window time.Duration) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

// RateLimit returns a Fiber middleware enforcing cfg.Limit requests per
// cfg.Window. It keys by authenticated user when known, otherwise by IP. When
// Redis is nil or failing it falls back to in-process token buckets.
func RateLimit(rdb *redis.Client, cfg RateLimitConfig) fiber.Handler {
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	local := newLocalLimiter(cfg.Limit, cfg.Window)

	return func(c *fiber.Ctx) error {
		if cfg.Disabled {
			return c.Next()
		}

		var id string
		if uid := CurrentUserID(c); uid != 0 {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		resource := cfg.Name
		if resource == "" {
			resource = c.Path()
		}

		var allowed bool
		if rdb != nil {
			var err error
			allowed, err = CheckRateLimit(c.UserContext(), rdb, resource, id, cfg.Limit, cfg.Window)
			if err != nil {
				LoggerFromContext(c.UserContext()).Warn("rate limit store unavailable, using local limiter",
					zap.String("resource", resource), zap.Error(err))
				allowed = local.allow(resource + ":" + id)
			}
		} else {
			allowed = local.allow(resource + ":" + id)
		}

		if !allowed {
			observability.RateLimitRejections.WithLabelValues(resource).Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
		}
		return c.Next()
	}
}
