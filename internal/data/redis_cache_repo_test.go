package data

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skimworks/skim-api/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestRedisCacheRepo_Set_Get_Delete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	defer client.Close()

	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		key := "article:cache:1"
		value := []byte("Extracted article text for a cached URL.")
		ttl := 5 * time.Minute

		err := repo.Set(ctx, key, value, ttl)
		require.NoError(t, err)

		result, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, value, result)

		// Check TTL is set
		actualTTL := client.TTL(ctx, key).Val()
		assert.True(t, actualTTL > 0 && actualTTL <= ttl)
	})

	t.Run("get is a miss for an unknown key", func(t *testing.T) {
		result, err := repo.Get(ctx, "article:cache:unknown")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete existing key", func(t *testing.T) {
		key := "article:cache:2"

		err := repo.Set(ctx, key, []byte("to be evicted"), time.Minute)
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, key)
		require.NoError(t, err)
		assert.True(t, deleted)

		result, err := repo.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("delete non-existent key", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, "article:cache:unknown")
		require.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("health check", func(t *testing.T) {
		err := repo.Health(ctx)
		assert.NoError(t, err)
	})
}

func TestRedisCacheRepo_Validation(t *testing.T) {
	// Validation errors occur before any Redis operation, but a client is
	// still needed to construct the repo.
	client := setupTestRedis(t)
	defer client.Close()

	repo := NewRedisCacheRepo(client)
	ctx := context.Background()

	err := repo.Set(ctx, "", []byte("value"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key cannot be empty")

	_, err = repo.Get(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key cannot be empty")

	_, err = repo.Delete(ctx, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key cannot be empty")
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
}

func TestNewRedisClient(t *testing.T) {
	cfg := RedisConfig{
		Addr:     "localhost:6379",
		Password: "test-password",
		DB:       2,
	}

	client := NewRedisClient(cfg)
	assert.NotNil(t, client)

	opts := client.Options()
	assert.Equal(t, cfg.Addr, opts.Addr)
	assert.Equal(t, cfg.Password, opts.Password)
	assert.Equal(t, cfg.DB, opts.DB)

	client.Close()
}
