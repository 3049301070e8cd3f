// Package debounce 提供读卡冷却计时器
package debounce

import (
	"context"
	"time"
)

// Timer 单一截止时间的冷却计时器，由轮询循环独占，非并发安全
type Timer struct {
	cooldown time.Duration
	deadline time.Time
	now      func() time.Time
}

// New 创建计时器，初始截止时间为 now+cooldown
func New(cooldown time.Duration) *Timer {
	return newWithClock(cooldown, time.Now)
}

func newWithClock(cooldown time.Duration, now func() time.Time) *Timer {
	t := &Timer{cooldown: cooldown, now: now}
	t.Reset()
	return t
}

// Cooldown 冷却时长
func (t *Timer) Cooldown() time.Duration { return t.cooldown }

// Reset 重新设定截止时间为 now+cooldown，丢弃之前的截止时间
func (t *Timer) Reset() {
	t.deadline = t.now().Add(t.cooldown)
}

// Deadline 当前截止时间
func (t *Timer) Deadline() time.Time { return t.deadline }

// Expired 截止时间是否已过
func (t *Timer) Expired() bool {
	return !t.now().Before(t.deadline)
}

// Remaining 距截止时间的剩余时长，已过期时为 0
func (t *Timer) Remaining() time.Duration {
	d := t.deadline.Sub(t.now())
	if d < 0 {
		return 0
	}
	return d
}

// Wait 阻塞到截止时间或 ctx 结束
func (t *Timer) Wait(ctx context.Context) error {
	d := t.Remaining()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
