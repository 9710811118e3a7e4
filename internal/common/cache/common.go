package cache

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"
)

// NullCacheValue marks a cached miss so repeated lookups for absent rows stay off the database.
const NullCacheValue = "$NULL$"

// GetWithCached implements cache-aside with null value caching.
// Cache read and write failures degrade to a direct fetch.
//
// Example:
//
//	user, err := GetWithCached(ctx, cache, "user:123", time.Hour, time.Minute,
//		func(u *User) bool { return u == nil },
//		marshalUser,
//		unmarshalUser,
//		func(ctx context.Context) (*User, error) { return repo.load(ctx, 123) })
func GetWithCached[T any](
	ctx context.Context,
	cache BasicOps,
	key string,
	ttl time.Duration,
	emptyTTL time.Duration,
	isEmpty func(T) bool,
	marshal func(T) string,
	unmarshal func(string) (T, error),
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	if cache != nil {
		if cached, err := cache.Get(ctx, key); err == nil && cached != "" {
			if cached == NullCacheValue {
				return zero, nil
			}
			if result, err := unmarshal(cached); err == nil {
				return result, nil
			}
		}
	}

	data, err := fn(ctx)
	if err != nil {
		return zero, err
	}
	if cache == nil {
		return data, nil
	}

	if isEmpty(data) {
		_ = cache.Set(ctx, key, NullCacheValue, emptyTTL)
		return zero, nil
	}
	_ = cache.Set(ctx, key, marshal(data), ttl)
	return data, nil
}

// JitterTTL shortens ttl by up to 10% so keys written together do not expire together.
func JitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	maxJitter := int64(ttl / 10)
	if maxJitter <= 0 {
		return ttl
	}
	n, err := rand.Int(rand.Reader, big.NewInt(maxJitter+1))
	if err != nil {
		return ttl
	}
	return ttl - time.Duration(n.Int64())
}
