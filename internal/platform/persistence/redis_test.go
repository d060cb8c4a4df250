package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfer-ledger/internal/config"
)

func TestRedisOptions(t *testing.T) {
	t.Run("RequiresEndpoint", func(t *testing.T) {
		_, err := redisOptions(&config.RedisConfig{})
		assert.EqualError(t, err, "redis url or address is required")
	})

	t.Run("FromAddress", func(t *testing.T) {
		opts, err := redisOptions(&config.RedisConfig{
			Address:      "cache:6379",
			Password:     "secret",
			DB:           2,
			PoolSize:     7,
			DialTimeout:  time.Second,
			ReadTimeout:  200 * time.Millisecond,
			WriteTimeout: 300 * time.Millisecond,
		})
		require.NoError(t, err)
		assert.Equal(t, "cache:6379", opts.Addr)
		assert.Equal(t, "secret", opts.Password)
		assert.Equal(t, 2, opts.DB)
		assert.Equal(t, 7, opts.PoolSize)
		assert.Equal(t, time.Second, opts.DialTimeout)
		assert.Equal(t, 200*time.Millisecond, opts.ReadTimeout)
		assert.Equal(t, 300*time.Millisecond, opts.WriteTimeout)
	})

	t.Run("URLTakesPrecedence", func(t *testing.T) {
		opts, err := redisOptions(&config.RedisConfig{
			URL:      "redis://:pw@redis.internal:6380/3",
			Address:  "ignored:6379",
			PoolSize: 4,
		})
		require.NoError(t, err)
		assert.Equal(t, "redis.internal:6380", opts.Addr)
		assert.Equal(t, "pw", opts.Password)
		assert.Equal(t, 3, opts.DB)
		assert.Equal(t, 4, opts.PoolSize)
	})

	t.Run("InvalidURL", func(t *testing.T) {
		_, err := redisOptions(&config.RedisConfig{URL: "http://nope"})
		assert.ErrorContains(t, err, "failed to parse Redis URL")
	})
}
