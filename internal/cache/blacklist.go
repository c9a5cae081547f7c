// Package cache holds the Redis-backed expiring lookups: the access-token
// blacklist and the signed media URL cache.  For the blacklist a key's
// mere existence marks the token as revoked; entries carry a TTL equal to
// the token's remaining lifetime so they clean themselves up no later than
// the token would have expired on its own.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when blacklisting is requested but Redis is
// not connected.  Reads degrade to "not blacklisted" instead.
var ErrUnavailable = errors.New("blacklist cache unavailable")

const blacklistPrefix = "blacklist:"

// Blacklist marks access tokens as invalid ahead of their natural expiry.
type Blacklist struct {
	rdb *redis.Client // nil when Redis is down; see NewRedisClient
}

func NewBlacklist(rdb *redis.Client) *Blacklist { return &Blacklist{rdb: rdb} }

// Add blacklists the token for the given remaining lifetime.  A
// non-positive TTL means the token is already expired and nothing needs
// storing.
func (b *Blacklist) Add(ctx context.Context, token string, ttl time.Duration) error {
	if b.rdb == nil {
		return ErrUnavailable
	}
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, blacklistPrefix+token, "1", ttl).Err()
}

// Contains reports whether the token has been blacklisted.  With Redis
// down it returns false: the bearer gate is permissive by design and the
// token still carries its own signature and expiry.
func (b *Blacklist) Contains(ctx context.Context, token string) bool {
	if b.rdb == nil {
		return false
	}
	n, err := b.rdb.Exists(ctx, blacklistPrefix+token).Result()
	return err == nil && n > 0
}
