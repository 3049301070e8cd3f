package thirdparty

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// 去重Key前缀
	dedupKeyPrefix = "terminal:dedup"

	// DefaultDedupTTL 默认去重TTL
	DefaultDedupTTL = 30 * time.Second
)

// Deduper 去重器（基于Redis实现）
type Deduper struct {
	redis  redis.Cmdable
	logger *zap.Logger
	ttl    time.Duration // 去重Key的TTL
}

// NewDeduper 创建去重器
func NewDeduper(redisClient redis.Cmdable, logger *zap.Logger, ttl time.Duration) *Deduper {
	if ttl == 0 {
		ttl = DefaultDedupTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Deduper{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

// TTL 去重窗口
func (d *Deduper) TTL() time.Duration { return d.ttl }

// IsDuplicate 检查 key 是否在去重窗口内出现过
// 返回true表示是重复，false表示首次出现（同时占位）
func (d *Deduper) IsDuplicate(ctx context.Context, key string) (bool, error) {
	if d == nil || d.redis == nil {
		return false, fmt.Errorf("deduper not initialized")
	}

	if key == "" {
		return false, fmt.Errorf("dedup key is empty")
	}

	// SetNX 设置成功表示首次出现
	success, err := d.redis.SetNX(ctx, d.buildKey(key), "1", d.ttl).Result()
	if err != nil {
		d.logger.Error("dedup check failed",
			zap.String("key", key),
			zap.Error(err))
		return false, fmt.Errorf("redis setnx: %w", err)
	}

	isDup := !success
	if isDup {
		d.logger.Debug("duplicate detected", zap.String("key", key))
	}

	return isDup, nil
}

// Release 删除去重占位（下游投递失败时回滚）
func (d *Deduper) Release(ctx context.Context, key string) error {
	if d == nil || d.redis == nil {
		return fmt.Errorf("deduper not initialized")
	}

	if key == "" {
		return fmt.Errorf("dedup key is empty")
	}

	return d.redis.Del(ctx, d.buildKey(key)).Err()
}

// buildKey 构建去重Key
func (d *Deduper) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", dedupKeyPrefix, key)
}
