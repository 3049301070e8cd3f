package provider

import (
	"context"
	"sync"
)

// TokenSink 接收令牌的下游
type TokenSink interface {
	ProvideToken(ctx context.Context, token ProvidedIDToken) error
}

// SinkFunc 函数适配器
type SinkFunc func(ctx context.Context, token ProvidedIDToken) error

// ProvideToken 实现 TokenSink
func (f SinkFunc) ProvideToken(ctx context.Context, token ProvidedIDToken) error {
	return f(ctx, token)
}

// SinkCell 就绪回调与轮询循环共享的下游槽位。
// 锁只覆盖读写槽位本身，不覆盖投递。
type SinkCell struct {
	mu   sync.RWMutex
	sink TokenSink
	gen  uint64
}

// Set 注册下游，后写覆盖先写
func (c *SinkCell) Set(s TokenSink) {
	c.mu.Lock()
	c.sink = s
	c.gen++
	c.mu.Unlock()
}

// Current 当前下游，未注册时返回 nil
func (c *SinkCell) Current() TokenSink {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sink
}

// Registered 是否已注册下游
func (c *SinkCell) Registered() bool {
	return c.Current() != nil
}

// Generation 注册次数
func (c *SinkCell) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}
