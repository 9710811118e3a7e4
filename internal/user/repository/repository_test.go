package repository

import (
	"context"
	"testing"
	"time"

	"mockinterview/internal/common/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLRUCacheEvictsAndExpires(t *testing.T) {
	c := NewLRUCache[bool](2, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Set("a", true, 0)
	c.Set("b", true, 0)
	c.Get("a")
	c.Set("c", true, 0)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("least recently used entry should be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("recently used entry should remain")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("entry should expire")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", c.Len())
	}
}

func TestTokenBlacklistRevoke(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCache, err := cache.NewRedisCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer redisCache.Close()

	repo := NewTokenBlacklistRepository(nil, redisCache, time.Second, time.Minute)
	ctx := context.Background()
	exp := time.Now().Add(30 * time.Minute)

	if err := repo.Revoke(ctx, "hash-1", exp); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err := repo.IsBlacklisted(ctx, "hash-1", exp)
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}
	revoked, err = repo.IsBlacklisted(ctx, "hash-2", exp)
	if err != nil || revoked {
		t.Fatalf("unrelated token must not be revoked, got %v %v", revoked, err)
	}

	key := blacklistKey(exp)
	if ttl := mr.TTL(key); ttl <= 0 || ttl > 2*time.Hour {
		t.Fatalf("bucket ttl out of range: %v", ttl)
	}

	past := time.Now().Add(-time.Minute)
	if err := repo.Revoke(ctx, "hash-old", past); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if revoked, _ := repo.IsBlacklisted(ctx, "hash-old", past); revoked {
		t.Fatalf("already expired token should not be stored")
	}
}
