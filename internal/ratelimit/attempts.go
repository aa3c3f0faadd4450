// Package ratelimit throttles login attempts per identifier and public
// requests per client IP.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AttemptStore counts failures per key inside a fixed window that starts at
// the first failure.
type AttemptStore interface {
	// Hit records one failure and returns the count and the time left in the window
	Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
	// Count returns the current count and time left without recording
	Count(ctx context.Context, key string) (int, time.Duration, error)
	// Reset clears the key
	Reset(ctx context.Context, key string) error
}

const keyPrefix = "cms:login_attempts:"

// RedisAttemptStore keeps counters in Redis with INCR + EXPIRE
type RedisAttemptStore struct {
	client *redis.Client
}

// NewRedisAttemptStore creates a Redis-backed attempt store
func NewRedisAttemptStore(client *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{client: client}
}

func (r *RedisAttemptStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	k := keyPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		return 1, window, nil
	}

	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// key lost its expiry; restart the window
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return int(count), ttl, nil
}

func (r *RedisAttemptStore) Count(ctx context.Context, key string) (int, time.Duration, error) {
	k := keyPrefix + key
	count, err := r.client.Get(ctx, k).Int()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	ttl, err := r.client.TTL(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

func (r *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}

// MemoryAttemptStore keeps counters in process memory
type MemoryAttemptStore struct {
	mu      sync.Mutex
	entries map[string]*attemptEntry
	now     func() time.Time
}

type attemptEntry struct {
	count     int
	expiresAt time.Time
}

// NewMemoryAttemptStore creates an in-process attempt store
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{entries: make(map[string]*attemptEntry), now: time.Now}
}

func (m *MemoryAttemptStore) live(key string) *attemptEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *MemoryAttemptStore) Hit(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		e = &attemptEntry{expiresAt: m.now().Add(window)}
		m.entries[key] = e
	}
	e.count++
	return e.count, e.expiresAt.Sub(m.now()), nil
}

func (m *MemoryAttemptStore) Count(ctx context.Context, key string) (int, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.live(key)
	if e == nil {
		return 0, 0, nil
	}
	return e.count, e.expiresAt.Sub(m.now()), nil
}

func (m *MemoryAttemptStore) Reset(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of tracked identifiers, expired or not
func (m *MemoryAttemptStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops every expired entry
func (m *MemoryAttemptStore) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

// RunCleanup sweeps expired entries every interval until ctx is done
func (m *MemoryAttemptStore) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
