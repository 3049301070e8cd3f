package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TokenQueue 令牌队列：RPUSH 到列表，同时 PUBLISH 到频道通知订阅方
type TokenQueue struct {
	client  *Client
	key     string
	channel string
}

// NewTokenQueue 创建令牌队列；channel 为空时不发布通知
func NewTokenQueue(client *Client, key, channel string) *TokenQueue {
	return &TokenQueue{client: client, key: key, channel: channel}
}

// Key 队列的 Redis Key
func (q *TokenQueue) Key() string { return q.key }

// Push 入队
func (q *TokenQueue) Push(ctx context.Context, payload []byte) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, q.key, payload)
		if q.channel != "" {
			pipe.Publish(ctx, q.channel, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("push token: %w", err)
	}
	return nil
}

// Pop 出队，队列为空时返回 nil, nil
func (q *TokenQueue) Pop(ctx context.Context) ([]byte, error) {
	data, err := q.client.LPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop token: %w", err)
	}
	return data, nil
}

// Len 队列长度
func (q *TokenQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Subscribe 订阅入队通知
func (q *TokenQueue) Subscribe(ctx context.Context) *redis.PubSub {
	return q.client.Subscribe(ctx, q.channel)
}
