package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) redis.UniversalClient {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), Protocol: 2})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestSlidingWindow(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindowLimiter(newRedis(t), "login:", time.Minute, 3)
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 3; i++ {
		ok, err := l.AllowN(ctx, "an@example.com", now.Add(time.Duration(i)*time.Second), 1)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i)
	}

	ok, err := l.AllowN(ctx, "an@example.com", now.Add(10*time.Second), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// 其他 key 不受影响
	ok, err = l.AllowN(ctx, "binh@example.com", now.Add(10*time.Second), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	// 第一条记录滑出窗口
	ok, err = l.AllowN(ctx, "an@example.com", now.Add(time.Minute+500*time.Millisecond), 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSlidingWindowBatch(t *testing.T) {
	ctx := context.Background()
	l := NewSlidingWindowLimiter(newRedis(t), "", time.Minute, 3)
	now := time.UnixMilli(1_700_000_000_000)

	ok, err := l.AllowN(ctx, "k", now, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.AllowN(ctx, "k", now, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = l.AllowN(ctx, "k", now, 0)
	assert.ErrorIs(t, err, ErrInvalidN)
}

func TestTokenBucket(t *testing.T) {
	ctx := context.Background()
	l := NewTokenBucketLimiter(newRedis(t), "tb:", 2, 1)
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 2; i++ {
		ok, err := l.AllowN(ctx, "ip", now, 1)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := l.AllowN(ctx, "ip", now, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// 一秒补充一个令牌
	ok, err = l.AllowN(ctx, "ip", now.Add(time.Second), 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.AllowN(ctx, "ip", now.Add(time.Second), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
