package cardreader

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrScriptExhausted 脚本中的读卡结果已全部返回
var ErrScriptExhausted = errors.New("reader script exhausted")

// Outcome 一次预置的读卡结果
type Outcome struct {
	Card  *CardInfo
	Err   error
	Delay time.Duration
}

// Card 构造成功读卡结果
func Card(t CardType, tagID string) Outcome {
	info := &CardInfo{Type: t}
	if tagID != "" {
		info.TagID = StringPtr(tagID)
	}
	return Outcome{Card: info}
}

// NoCard 构造无卡结果
func NoCard() Outcome { return Outcome{Err: ErrNoCardPresented} }

// Fault 构造设备故障结果
func Fault(err error) Outcome { return Outcome{Err: err} }

// Scripted 按顺序回放预置结果的读卡会话
type Scripted struct {
	mu       sync.Mutex
	outcomes []Outcome
	next     int
	loop     bool
	reads    int
	closed   bool

	// OnRead 在每次返回结果前被调用（index 从 0 开始）
	OnRead func(index int)
}

// NewScripted 创建脚本会话；loop 为 true 时脚本耗尽后从头开始
func NewScripted(loop bool, outcomes ...Outcome) *Scripted {
	return &Scripted{outcomes: outcomes, loop: loop}
}

// ReadCard 返回下一个预置结果
func (s *Scripted) ReadCard(ctx context.Context) (*CardInfo, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, errors.New("reader session closed")
	}
	if s.next >= len(s.outcomes) {
		if !s.loop || len(s.outcomes) == 0 {
			s.mu.Unlock()
			return nil, ErrScriptExhausted
		}
		s.next = 0
	}
	idx := s.reads
	o := s.outcomes[s.next]
	s.next++
	s.reads++
	hook := s.OnRead
	s.mu.Unlock()

	if o.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.Delay):
		}
	}

	if hook != nil {
		hook(idx)
	}

	if o.Err != nil {
		return nil, o.Err
	}
	if o.Card == nil {
		return nil, ErrNoCardPresented
	}
	// 每次返回副本，调用方不会改写脚本
	card := *o.Card
	if o.Card.TagID != nil {
		card.TagID = StringPtr(*o.Card.TagID)
	}
	return &card, nil
}

// Reads 已执行的读卡次数
func (s *Scripted) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

// Close 关闭会话
func (s *Scripted) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
