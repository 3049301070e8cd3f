// Package sink 提供令牌下游的具体实现与装饰器
package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taoyao-code/card-terminal/internal/provider"
)

// TokenEvent 对外投递的令牌事件
type TokenEvent struct {
	ID         uuid.UUID                `json:"event_id"`
	TerminalID string                   `json:"terminal_id"`
	Token      provider.ProvidedIDToken `json:"token"`
	ProvidedAt time.Time                `json:"provided_at"`
}

type eventIDKey struct{}

// WithEventID 在 ctx 中携带事件 ID，使同一次投递在各下游与流水中共用一个 ID
func WithEventID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, eventIDKey{}, id)
}

// EventIDFromContext 取出 ctx 中的事件 ID
func EventIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(eventIDKey{}).(uuid.UUID)
	return id, ok
}

// NewEvent 构造令牌事件；ctx 中无事件 ID 时生成新的
func NewEvent(ctx context.Context, terminalID string, token provider.ProvidedIDToken, now time.Time) TokenEvent {
	id, ok := EventIDFromContext(ctx)
	if !ok {
		id = uuid.New()
	}
	return TokenEvent{
		ID:         id,
		TerminalID: terminalID,
		Token:      token,
		ProvidedAt: now.UTC(),
	}
}
