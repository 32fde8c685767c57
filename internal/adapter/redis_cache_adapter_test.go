package adapter

import (
	"context"
	"errors"
	"quiz-funnel/internal/cache"
	"quiz-funnel/internal/domain"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisCacheAdapter_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := cache.QuizDefinitionKey("acme", "lead-magnet")
	expectedValue := `{"slug":"lead-magnet"}`

	t.Run("Success", func(t *testing.T) {
		mock.ExpectGet(key).SetVal(expectedValue)
		val, err := adapter.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, expectedValue, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CacheMiss", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(redis.Nil)
		val, err := adapter.Get(ctx, key)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectGet(key).SetErr(redisErr)
		val, err := adapter.Get(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.Empty(t, val)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := cache.QuizDefinitionKey("acme", "lead-magnet")
	value := `{"slug":"lead-magnet"}`
	expiration := 10 * time.Minute

	t.Run("Success", func(t *testing.T) {
		mock.ExpectSet(key, value, expiration).SetVal("OK")
		err := adapter.Set(ctx, key, value, expiration)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectSet(key, value, expiration).SetErr(redisErr)
		err := adapter.Set(ctx, key, value, expiration)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	key := cache.QuizListKey("acme")

	t.Run("Success", func(t *testing.T) {
		mock.ExpectDel(key).SetVal(1)
		err := adapter.Delete(ctx, key)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("SuccessKeyNotFound", func(t *testing.T) {
		mock.ExpectDel(key).SetVal(0)
		err := adapter.Delete(ctx, key)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectDel(key).SetErr(redisErr)
		err := adapter.Delete(ctx, key)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisCacheAdapter_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	adapter := NewRedisCacheAdapter(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectPing().SetVal("PONG")
		err := adapter.Ping(ctx)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RedisError", func(t *testing.T) {
		redisErr := errors.New("some redis error")
		mock.ExpectPing().SetErr(redisErr)
		err := adapter.Ping(ctx)
		assert.ErrorIs(t, err, redisErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	var c domain.Cache = NoopCache{}

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	val, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.Empty(t, val)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Ping(ctx))
}
