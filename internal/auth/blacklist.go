package auth

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// Blacklist tracks revoked tokens until their natural expiration. Entries go
// to Redis when a client is configured, with an in-memory map as fallback so
// signout still works in single-instance deployments without Redis.
type Blacklist struct {
	redis *redis.Client

	mu      sync.RWMutex
	revoked map[string]time.Time
}

func NewBlacklist(rc *redis.Client) *Blacklist {
	return &Blacklist{redis: rc, revoked: map[string]time.Time{}}
}

// Revoke stores the token until expiresAt.
func (b *Blacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if b.redis != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		_ = b.redis.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err()
		return
	}
	b.mu.Lock()
	b.revoked[token] = expiresAt
	b.mu.Unlock()
}

// IsRevoked reports whether the token was revoked before natural expiration.
// Redis errors fail open to avoid locking every user out on an outage.
func (b *Blacklist) IsRevoked(ctx context.Context, token string) bool {
	if b.redis != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.redis.Exists(ctx, blacklistKeyPrefix+token).Result()
		if err == nil {
			return n > 0
		}
		return false
	}

	b.mu.RLock()
	expiresAt, ok := b.revoked[token]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		b.mu.Lock()
		delete(b.revoked, token)
		b.mu.Unlock()
		return false
	}
	return true
}
