package ratelimit

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttemptStore_Window(t *testing.T) {
	store := NewMemoryAttemptStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		count, left, err := store.Hit(ctx, "a@example.com", 15*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.Equal(t, 15*time.Minute, left)
	}

	now = now.Add(10 * time.Minute)
	count, left, err := store.Count(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 5*time.Minute, left)

	now = now.Add(5 * time.Minute)
	count, _, err = store.Count(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryAttemptStore_Reset(t *testing.T) {
	store := NewMemoryAttemptStore()
	ctx := context.Background()

	store.Hit(ctx, "k", time.Minute)
	store.Hit(ctx, "other", time.Minute)
	require.NoError(t, store.Reset(ctx, "k"))

	count, _, _ := store.Count(ctx, "k")
	assert.Equal(t, 0, count)
	count, _, _ = store.Count(ctx, "other")
	assert.Equal(t, 1, count)
}

func TestRedisAttemptStore(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping Redis tests")
	}

	opt, err := redis.ParseURL(redisURL)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	defer client.Close()

	store := NewRedisAttemptStore(client)
	ctx := context.Background()
	key := "test:" + uuid.NewString()
	defer store.Reset(ctx, key)

	count, left, err := store.Hit(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, time.Minute, left)

	count, left, err = store.Hit(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.True(t, left > 0 && left <= time.Minute)

	require.NoError(t, store.Reset(ctx, key))
	count, _, err = store.Count(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIPLimiter(t *testing.T) {
	l := NewIPLimiter(1, 2)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))

	// other clients have their own bucket
	assert.True(t, l.Allow("2.2.2.2"))
	assert.Equal(t, 2, l.Len())

	now = now.Add(10 * time.Minute)
	assert.True(t, l.Allow("3.3.3.3"))
	l.Sweep(5 * time.Minute)
	assert.Equal(t, 1, l.Len())
}

func TestMemoryAttemptStore_Sweep(t *testing.T) {
	store := NewMemoryAttemptStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		store.Hit(ctx, uuid.NewString()+"@example.com", 15*time.Minute)
	}
	store.Hit(ctx, "late@example.com", time.Hour)
	require.Equal(t, 101, store.Len())

	now = now.Add(20 * time.Minute)
	store.Sweep()
	assert.Equal(t, 1, store.Len())

	count, _, err := store.Count(ctx, "late@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunCleanup_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := NewMemoryAttemptStore()
	limiter := NewIPLimiter(1, 1)

	done := make(chan struct{}, 2)
	go func() { attempts.RunCleanup(ctx, time.Millisecond); done <- struct{}{} }()
	go func() { limiter.RunCleanup(ctx, time.Millisecond, time.Minute); done <- struct{}{} }()

	cancel()
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("cleanup loop did not stop after cancel")
		}
	}
}
