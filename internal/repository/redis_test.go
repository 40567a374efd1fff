package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatroom/pkg/logger"
)

// requires Redis running on localhost:6379
const testRedisAddr = "localhost:6379"

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRateLimitRepository(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewRateLimitRepository(client, logger.Nop())
	ctx := context.Background()
	key := "test:ratelimit:" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, key) })

	ok, err := repo.CheckLimit(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	for want := int64(1); want <= 2; want++ {
		n, err := repo.Increment(ctx, key, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ok, err = repo.CheckLimit(ctx, key, 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := client.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestSessionRepository(t *testing.T) {
	client := setupTestRedis(t)
	repo := NewSessionRepository(client, logger.Nop())
	ctx := context.Background()
	jti := uuid.NewString()

	revoked, err := repo.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, repo.Revoke(ctx, jti, time.Minute))
	t.Cleanup(func() { client.Del(ctx, "session:revoked:"+jti) })

	revoked, err = repo.IsRevoked(ctx, jti)
	require.NoError(t, err)
	assert.True(t, revoked)

	// expired tokens are not stored
	other := uuid.NewString()
	require.NoError(t, repo.Revoke(ctx, other, 0))
	revoked, err = repo.IsRevoked(ctx, other)
	require.NoError(t, err)
	assert.False(t, revoked)
}
