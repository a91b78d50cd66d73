package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// RateLimiter throttles the payment endpoints with a redis fixed window
// per caller. Keys expire with the window; nothing is swept manually.
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
	}
}

// PaymentRateLimit returns a route middleware. Authenticated callers are
// limited per user, anonymous ones per IP. Redis failures let the
// request through; throttling is not worth failing payments over.
func (r *RateLimiter) PaymentRateLimit() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		key := fmt.Sprintf("ratelimit:payment:%s", r.identifier(e))
		ctx := e.Request.Context()

		count, err := r.redis.Incr(ctx, key).Result()
		if err != nil {
			return e.Next()
		}
		if count == 1 {
			r.redis.Expire(ctx, key, r.window)
		}
		if count > int64(r.limit) {
			return apis.NewApiError(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
		}

		return e.Next()
	}
}

// AntiBot returns a route middleware rejecting obvious crawler traffic
// before it reaches a gateway.
func (r *RateLimiter) AntiBot() func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if isSuspiciousUserAgent(e.Request.Header.Get("User-Agent")) {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.Next()
	}
}

func (r *RateLimiter) identifier(e *core.RequestEvent) string {
	if e.Auth != nil {
		return "user:" + e.Auth.Id
	}
	return "ip:" + e.RealIP()
}

func isSuspiciousUserAgent(ua string) bool {
	suspicious := []string{"bot", "crawler", "spider", "scraper"}
	for _, pattern := range suspicious {
		if strings.Contains(strings.ToLower(ua), pattern) {
			return true
		}
	}
	return false
}
