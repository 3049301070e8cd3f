package thirdparty

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDeduper_NotInitialized(t *testing.T) {
	var d *Deduper
	_, err := d.IsDuplicate(context.Background(), "k")
	assert.Error(t, err)

	d = NewDeduper(nil, nil, 0)
	assert.Equal(t, DefaultDedupTTL, d.TTL())
	_, err = d.IsDuplicate(context.Background(), "k")
	assert.Error(t, err)
}

func TestDeduper_IsDuplicate(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15, DialTimeout: 500 * time.Millisecond})
	defer rdb.Close()
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis不可用，跳过测试: %v", err)
	}

	d := NewDeduper(rdb, zap.NewNop(), time.Second)
	key := fmt.Sprintf("A1:%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = d.Release(context.Background(), key) })

	dup, err := d.IsDuplicate(ctx, key)
	require.NoError(t, err)
	assert.False(t, dup, "首次出现")

	dup, err = d.IsDuplicate(ctx, key)
	require.NoError(t, err)
	assert.True(t, dup, "窗口内重复")

	require.NoError(t, d.Release(ctx, key))
	dup, err = d.IsDuplicate(ctx, key)
	require.NoError(t, err)
	assert.False(t, dup, "释放后视为首次出现")

	_, err = d.IsDuplicate(ctx, "")
	assert.Error(t, err)
}
