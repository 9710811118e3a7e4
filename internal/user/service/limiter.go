package service

import (
	"context"
	"strconv"
	"time"

	"mockinterview/internal/common/cache"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

const loginFailKeyPrefix = "login:fail:"

// limitSubject is one dimension a login attempt is counted against.
type limitSubject struct {
	kind  string
	value string
}

func (s limitSubject) key() string {
	return loginFailKeyPrefix + s.kind + ":" + s.value
}

// loginSubjects lists what a login from ip for email is counted against. The ip is
// skipped when unknown so anonymous callers do not share one counter.
func loginSubjects(email, ip string) []limitSubject {
	subjects := []limitSubject{{kind: "email", value: email}}
	if ip != "" {
		subjects = append(subjects, limitSubject{kind: "ip", value: ip})
	}
	return subjects
}

// loginLimiter counts failed logins per subject in a fixed window that starts with
// the first failure. A nil limiter allows everything.
type loginLimiter struct {
	store  cache.BasicOps
	limit  int
	window time.Duration
}

func newLoginLimiter(store cache.BasicOps, limit int, window time.Duration) *loginLimiter {
	if store == nil || limit <= 0 {
		return nil
	}
	return &loginLimiter{store: store, limit: limit, window: window}
}

// Check rejects the attempt once any subject reached the limit. Store errors fail open.
func (l *loginLimiter) Check(ctx context.Context, subjects []limitSubject) error {
	if l == nil {
		return nil
	}
	for _, subject := range subjects {
		if l.failures(ctx, subject) >= l.limit {
			logger.Info(ctx, "login throttled", zap.String("subject", subject.kind))
			return pkgerrors.New(pkgerrors.TooManyRequests).WithMessage("Too many failed login attempts, try again later")
		}
	}
	return nil
}

// Fail records one failed attempt for every subject.
func (l *loginLimiter) Fail(ctx context.Context, subjects []limitSubject) {
	if l == nil {
		return
	}
	for _, subject := range subjects {
		key := subject.key()
		n, err := l.store.Incr(ctx, key)
		if err != nil {
			logger.Warn(ctx, "increment login fail counter failed", zap.String("key", key), zap.Error(err))
			continue
		}
		if n > 1 {
			continue
		}
		if err := l.store.Expire(ctx, key, l.window); err != nil {
			logger.Warn(ctx, "set login fail counter ttl failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Reset drops the counters after a successful login.
func (l *loginLimiter) Reset(ctx context.Context, subjects []limitSubject) {
	if l == nil || len(subjects) == 0 {
		return
	}
	keys := make([]string, len(subjects))
	for i, subject := range subjects {
		keys[i] = subject.key()
	}
	if err := l.store.Del(ctx, keys...); err != nil {
		logger.Warn(ctx, "clear login fail counters failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (l *loginLimiter) failures(ctx context.Context, subject limitSubject) int {
	key := subject.key()
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		logger.Warn(ctx, "get login fail counter failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logger.Warn(ctx, "parse login fail counter failed", zap.String("key", key), zap.Error(err))
		return 0
	}
	return n
}
