package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CounterStore is an ephemeral key/value store with per-key expiry.
type CounterStore interface {
	// Get returns the stored count; ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (n int64, ok bool, err error)
	// Set overwrites the count and restarts its TTL.
	Set(ctx context.Context, key string, n int64, ttl time.Duration) error
}

// RedisStore keeps counters in Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, n int64, ttl time.Duration) error {
	return s.client.Set(ctx, key, n, ttl).Err()
}

type memEntry struct {
	n       int64
	expires time.Time
}

// MemoryStore keeps counters in process memory, for single-instance
// deployments and tests.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]memEntry{}, now: time.Now}
}

// WithClock replaces the store's time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

func (s *MemoryStore) Get(ctx context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[key]
	if !ok {
		return 0, false, nil
	}
	if !s.now().Before(e.expires) {
		delete(s.data, key)
		return 0, false, nil
	}
	return e.n, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, n int64, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = memEntry{n: n, expires: s.now().Add(ttl)}
	return nil
}
