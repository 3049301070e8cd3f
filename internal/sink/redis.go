package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/taoyao-code/card-terminal/internal/provider"
)

// Queue 令牌队列
type Queue interface {
	Push(ctx context.Context, payload []byte) error
}

// Redis 将令牌事件推入 Redis 队列的下游
type Redis struct {
	queue      Queue
	terminalID string
	now        func() time.Time
}

// NewRedis 创建 Redis 下游
func NewRedis(queue Queue, terminalID string) *Redis {
	return &Redis{queue: queue, terminalID: terminalID, now: time.Now}
}

// ProvideToken 实现 provider.TokenSink
func (r *Redis) ProvideToken(ctx context.Context, token provider.ProvidedIDToken) error {
	ev := NewEvent(ctx, r.terminalID, token, r.now())
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal token event: %w", err)
	}
	return r.queue.Push(ctx, data)
}
