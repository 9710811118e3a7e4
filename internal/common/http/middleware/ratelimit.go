package middleware

import (
	"context"
	"fmt"
	"time"

	"mockinterview/internal/common/cache"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter enforces fixed-window limits using Redis.
type RateLimiter struct {
	cache        cache.BasicOps
	window       time.Duration
	redisTimeout time.Duration
}

func NewRateLimiter(cacheClient cache.BasicOps, window, redisTimeout time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if redisTimeout <= 0 {
		redisTimeout = 200 * time.Millisecond
	}
	return &RateLimiter{cache: cacheClient, window: window, redisTimeout: redisTimeout}
}

// Allow counts one hit on key and fails with code once more than max hits land in the window.
func (s *RateLimiter) Allow(ctx context.Context, key string, max int, window time.Duration, code pkgerrors.ErrorCode) error {
	if s.cache == nil {
		return pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("rate limit cache is unavailable")
	}
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = s.window
	}

	ctxCache, cancel := context.WithTimeout(ctx, s.redisTimeout)
	defer cancel()

	acquired, err := s.cache.SetNX(ctxCache, key, 1, window)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
	}
	count := int64(1)
	if !acquired {
		count, err = s.cache.Incr(ctxCache, key)
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
		}
		// A key that lost its ttl would otherwise block forever.
		if ttl, ttlErr := s.cache.TTL(ctxCache, key); ttlErr == nil && ttl < 0 {
			_ = s.cache.Expire(ctxCache, key, window)
		}
	}
	if count > int64(max) {
		return pkgerrors.New(code).WithDetail("retry_after_seconds", int(window.Seconds()))
	}
	return nil
}

type RateLimitPolicy struct {
	Window  time.Duration `yaml:"window"`
	UserMax int           `yaml:"userMax"`
	IPMax   int           `yaml:"ipMax"`
}

// RateLimitMiddleware enforces per-ip and per-user limits on one route group.
// Cache outages fail open so a Redis blip does not take the route down.
func RateLimitMiddleware(limiter *RateLimiter, routeKey string, policy RateLimitPolicy, code pkgerrors.ErrorCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		if policy.IPMax > 0 {
			key := fmt.Sprintf("rate:ip:%s:%s", c.ClientIP(), routeKey)
			if !allowOrAbort(c, limiter.Allow(ctx, key, policy.IPMax, policy.Window, code)) {
				return
			}
		}
		if policy.UserMax > 0 {
			if userID, ok := UserID(c); ok {
				key := fmt.Sprintf("rate:user:%d:%s", userID, routeKey)
				if !allowOrAbort(c, limiter.Allow(ctx, key, policy.UserMax, policy.Window, code)) {
					return
				}
			}
		}
		c.Next()
	}
}

func allowOrAbort(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	if pkgerrors.Is(err, pkgerrors.CacheError) || pkgerrors.Is(err, pkgerrors.ServiceUnavailable) {
		logger.Warn(c.Request.Context(), "rate limit skipped", zap.Error(err))
		return true
	}
	response.AbortWithError(c, err)
	return false
}
