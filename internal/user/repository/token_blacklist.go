package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"mockinterview/internal/common/cache"
)

// revocationBucket groups revoked tokens by the hour they expire in, so a whole
// set can lapse once every member is past its expiry.
const revocationBucket = time.Hour

type blacklistStore interface {
	cache.SetOps
	TTL(ctx context.Context, key string) (time.Duration, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// TokenBlacklistRepository records revoked access tokens in Redis with a local cache
// in front for the hot authentication path.
type TokenBlacklistRepository struct {
	local        *LRUCache[bool]
	redis        blacklistStore
	redisTimeout time.Duration
	localTTL     time.Duration
}

func NewTokenBlacklistRepository(local *LRUCache[bool], redis blacklistStore, redisTimeout, localTTL time.Duration) *TokenBlacklistRepository {
	if redisTimeout <= 0 {
		redisTimeout = 200 * time.Millisecond
	}
	return &TokenBlacklistRepository{
		local:        local,
		redis:        redis,
		redisTimeout: redisTimeout,
		localTTL:     localTTL,
	}
}

// Revoke adds tokenHash to the bucket for expiresAt. Tokens already expired are ignored.
func (r *TokenBlacklistRepository) Revoke(ctx context.Context, tokenHash string, expiresAt time.Time) error {
	if tokenHash == "" {
		return nil
	}
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return nil
	}
	if r.redis == nil {
		return errors.New("redis is nil")
	}

	ctxCache, cancel := context.WithTimeout(ctx, r.redisTimeout)
	defer cancel()

	key := blacklistKey(expiresAt)
	if err := r.redis.SAdd(ctxCache, key, tokenHash); err != nil {
		return err
	}
	if err := extendTTL(ctxCache, r.redis, key, time.Until(bucketEnd(expiresAt))); err != nil {
		return err
	}
	if r.local != nil {
		r.local.Set(tokenHash, true, remaining)
	}
	return nil
}

// IsBlacklisted reports whether tokenHash, expiring at expiresAt, has been revoked.
func (r *TokenBlacklistRepository) IsBlacklisted(ctx context.Context, tokenHash string, expiresAt time.Time) (bool, error) {
	if tokenHash == "" {
		return false, nil
	}
	if r.local != nil {
		if val, ok := r.local.Get(tokenHash); ok {
			return val, nil
		}
	}
	if r.redis == nil {
		return false, errors.New("redis is nil")
	}

	ctxCache, cancel := context.WithTimeout(ctx, r.redisTimeout)
	defer cancel()
	blacklisted, err := r.redis.SIsMember(ctxCache, blacklistKey(expiresAt), tokenHash)
	if err != nil {
		return false, err
	}
	if blacklisted && r.local != nil {
		r.local.Set(tokenHash, true, r.localTTL)
	}
	return blacklisted, nil
}

func blacklistKey(expiresAt time.Time) string {
	return tokenBlacklistKeyPrefix + strconv.FormatInt(expiresAt.UTC().Truncate(revocationBucket).Unix(), 10)
}

func bucketEnd(expiresAt time.Time) time.Time {
	return expiresAt.UTC().Truncate(revocationBucket).Add(revocationBucket)
}

func extendTTL(ctx context.Context, store blacklistStore, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	currentTTL, err := store.TTL(ctx, key)
	if err != nil {
		return store.Expire(ctx, key, ttl)
	}
	if currentTTL < 0 || ttl > currentTTL {
		return store.Expire(ctx, key, ttl)
	}
	return nil
}
