package service

import (
	"context"
	"testing"
	"time"

	"mockinterview/internal/common/cache"
	pkgerrors "mockinterview/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*loginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return newLoginLimiter(store, limit, window), mr
}

func TestLoginSubjectsSkipUnknownIP(t *testing.T) {
	require.Equal(t, []limitSubject{{kind: "email", value: "a@b.io"}}, loginSubjects("a@b.io", ""))

	subjects := loginSubjects("a@b.io", "10.0.0.1")
	require.Len(t, subjects, 2)
	require.Equal(t, "login:fail:email:a@b.io", subjects[0].key())
	require.Equal(t, "login:fail:ip:10.0.0.1", subjects[1].key())
}

func TestLimiterIPThrottlesAcrossEmails(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3, time.Minute)
	ctx := context.Background()

	for _, email := range []string{"a@b.io", "c@d.io", "e@f.io"} {
		subjects := loginSubjects(email, "10.0.0.9")
		require.NoError(t, limiter.Check(ctx, subjects))
		limiter.Fail(ctx, subjects)
	}

	err := limiter.Check(ctx, loginSubjects("fresh@b.io", "10.0.0.9"))
	require.True(t, pkgerrors.Is(err, pkgerrors.TooManyRequests), "got %v", err)
	require.NoError(t, limiter.Check(ctx, loginSubjects("fresh@b.io", "10.0.0.10")))
}

func TestLimiterWindowStartsAtFirstFailure(t *testing.T) {
	limiter, mr := newTestLimiter(t, 5, time.Minute)
	ctx := context.Background()
	subjects := loginSubjects("a@b.io", "")
	key := subjects[0].key()

	limiter.Fail(ctx, subjects)
	mr.FastForward(40 * time.Second)
	limiter.Fail(ctx, subjects)

	require.Equal(t, "2", mustGet(t, mr, key))
	require.Equal(t, 20*time.Second, mr.TTL(key))

	mr.FastForward(21 * time.Second)
	require.False(t, mr.Exists(key))
}

func TestLimiterFailsOpenOnCorruptCounter(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1, time.Minute)
	subjects := loginSubjects("a@b.io", "")
	require.NoError(t, mr.Set(subjects[0].key(), "not-a-number"))

	require.NoError(t, limiter.Check(context.Background(), subjects))
}

func TestNilLimiterAllowsEverything(t *testing.T) {
	require.Nil(t, newLoginLimiter(nil, 5, time.Minute))

	var limiter *loginLimiter
	ctx := context.Background()
	subjects := loginSubjects("a@b.io", "10.0.0.1")
	require.NoError(t, limiter.Check(ctx, subjects))
	limiter.Fail(ctx, subjects)
	limiter.Reset(ctx, subjects)
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
