package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records access tokens revoked at logout until they would expire anyway.
// A nil *Blacklist is valid and never reports a token as revoked.
type Blacklist struct {
	client *redis.Client
	prefix string
}

func NewBlacklist(client *redis.Client, prefix string) *Blacklist {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = "guestpost:blacklist:access:"
	}
	return &Blacklist{client: client, prefix: prefix}
}

// Revoke stores token with the given TTL. Non-positive TTLs are ignored.
func (b *Blacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if b == nil || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.prefix+token, "1", ttl).Err()
}

func (b *Blacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	if b == nil {
		return false, nil
	}
	n, err := b.client.Exists(ctx, b.prefix+token).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
