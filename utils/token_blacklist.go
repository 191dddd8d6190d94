package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "jwt:blacklist:"

// TokenBlacklist remembers revoked tokens until they would have expired anyway.
// Redis is preferred; without it entries live in process memory.
type TokenBlacklist struct {
	rc  *redis.Client
	mu  sync.RWMutex
	mem map[string]time.Time
	now func() time.Time
}

// NewTokenBlacklist returns a blacklist backed by rc, or by memory when rc is nil.
func NewTokenBlacklist(rc *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rc: rc, mem: map[string]time.Time{}, now: time.Now}
}

// Revoke stores a token until expiresAt.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return b.rc.Set(ctx, blacklistKeyPrefix+token, "1", ttl).Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pruneLocked()
	b.mem[token] = expiresAt
	return nil
}

// IsRevoked checks if a token was revoked before natural expiration.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	if b.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		n, err := b.rc.Exists(ctx, blacklistKeyPrefix+token).Result()
		if err != nil {
			// fail open so a Redis outage does not lock everyone out
			Sugar.Warnf("token blacklist lookup failed: %v", err)
			return false
		}
		return n > 0
	}
	b.mu.RLock()
	exp, ok := b.mem[token]
	b.mu.RUnlock()
	return ok && b.now().Before(exp)
}

func (b *TokenBlacklist) pruneLocked() {
	now := b.now()
	for token, exp := range b.mem {
		if !now.Before(exp) {
			delete(b.mem, token)
		}
	}
}
