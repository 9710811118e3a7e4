package cache

import (
	"context"
	"time"
)

// Cache is the subset of Redis the service uses.
type Cache interface {
	BasicOps
	SetOps
	Ping(ctx context.Context) error
	Close() error
}

// BasicOps covers string keys: user lookups, login counters and rate windows.
type BasicOps interface {
	// Get returns "" and no error for a missing key.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value. A ttl of 0 keeps the key forever.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Incr(ctx context.Context, key string) (int64, error)
}

// SetOps backs the revoked-token buckets.
type SetOps interface {
	SAdd(ctx context.Context, key string, members ...interface{}) error
	SIsMember(ctx context.Context, key string, member interface{}) (bool, error)
}
