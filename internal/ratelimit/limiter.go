package ratelimit

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	DefaultPrefix = "guestpost:submissions:"
	DefaultWindow = 24 * time.Hour
)

// Limiter caps accepted submissions per client within a sliding window.
//
// The check and the record are separate read-then-write operations, so two
// concurrent submissions from one client can both pass the check. The counter
// is a soft abuse control, not a hard quota.
type Limiter struct {
	store  CounterStore
	prefix string
	window time.Duration
}

func NewLimiter(store CounterStore, prefix string, window time.Duration) *Limiter {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{store: store, prefix: prefix, window: window}
}

// Key returns the counter key for clientID. The raw address is never stored.
func (l *Limiter) Key(clientID string) string {
	sum := md5.Sum([]byte(clientID))
	return l.prefix + hex.EncodeToString(sum[:])
}

// IsLimitExceeded reports whether clientID already holds limit accepted
// submissions. A limit of 0 means unlimited.
func (l *Limiter) IsLimitExceeded(ctx context.Context, clientID string, limit uint) (bool, error) {
	if limit == 0 {
		return false, nil
	}
	n, ok, err := l.store.Get(ctx, l.Key(clientID))
	if err != nil {
		return false, fmt.Errorf("read submission counter: %w", err)
	}
	if !ok {
		return false, nil
	}
	return n >= int64(limit), nil
}

// Record counts one accepted submission and restarts the window. No-op for limit 0.
func (l *Limiter) Record(ctx context.Context, clientID string, limit uint) error {
	if limit == 0 {
		return nil
	}
	key := l.Key(clientID)
	n, _, err := l.store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("read submission counter: %w", err)
	}
	if err := l.store.Set(ctx, key, n+1, l.window); err != nil {
		return fmt.Errorf("write submission counter: %w", err)
	}
	return nil
}
