package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
)

// 注意: 这些测试需要Redis服务器运行
// 如果没有Redis，测试会被跳过

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), cfgpkg.RedisConfig{
		Enabled:     true,
		Addr:        "localhost:6379",
		DB:          15,
		DialTimeout: 500 * time.Millisecond,
	})
	if err != nil {
		t.Skipf("Redis不可用，跳过测试: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewClient_Disabled(t *testing.T) {
	_, err := NewClient(context.Background(), cfgpkg.RedisConfig{Enabled: false})
	assert.Error(t, err)
}

func TestTokenQueue_PushPop(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	key := fmt.Sprintf("test:tokens:%d", time.Now().UnixNano())
	channel := key + ":events"
	t.Cleanup(func() { c.Del(context.Background(), key) })

	q := NewTokenQueue(c, key, channel)
	sub := q.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Push(ctx, []byte(`{"n":1}`)))
	require.NoError(t, q.Push(ctx, []byte(`{"n":2}`)))

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"n":1}`, msg.Payload)

	t.Run("先进先出", func(t *testing.T) {
		first, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"n":1}`, string(first))
		second, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Equal(t, `{"n":2}`, string(second))
	})

	t.Run("空队列", func(t *testing.T) {
		data, err := q.Pop(ctx)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	require.NoError(t, c.HealthCheck(ctx))
	assert.NotNil(t, c.Stats())
}
