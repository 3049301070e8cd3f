// Package provider 实现读卡轮询与令牌分发循环
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/cardreader"
	"github.com/taoyao-code/card-terminal/internal/debounce"
	"github.com/taoyao-code/card-terminal/internal/metrics"
)

var (
	// ErrReaderFault 读卡器致命故障
	ErrReaderFault = errors.New("card reader fault")
	// ErrMissingTagID 会员卡缺少标签 ID
	ErrMissingTagID = errors.New("membership card without tag id")
	// ErrSinkRejected 下游拒绝令牌
	ErrSinkRejected = errors.New("token sink rejected token")
)

// DefaultCooldown 两次有效读卡之间的默认冷却时间
const DefaultCooldown = 5 * time.Second

// Provider 读卡轮询循环，单协程运行
type Provider struct {
	session  cardreader.Session
	cooldown time.Duration
	sinks    *SinkCell
	logger   *zap.Logger
	metrics  *metrics.TerminalMetrics
}

// New 创建轮询循环
func New(session cardreader.Session, cooldown time.Duration, logger *zap.Logger, m *metrics.TerminalMetrics) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Provider{
		session:  session,
		cooldown: cooldown,
		sinks:    &SinkCell{},
		logger:   logger,
		metrics:  m,
	}
}

// OnReady 下游就绪回调：注册（或替换）令牌下游
func (p *Provider) OnReady(sink TokenSink) {
	p.sinks.Set(sink)
	p.metrics.SetSinkRegistered(sink != nil)
	p.logger.Info("token sink registered", zap.Uint64("generation", p.sinks.Generation()))
}

// Sinks 下游槽位
func (p *Provider) Sinks() *SinkCell { return p.sinks }

// Run 运行轮询循环，直到 ctx 结束（返回 nil）或出现致命错误
func (p *Provider) Run(ctx context.Context) error {
	timer := debounce.New(p.cooldown)
	p.logger.Info("ready to read card", zap.Duration("cooldown", p.cooldown))

	for {
		if ctx.Err() != nil {
			return nil
		}

		card, err := p.session.ReadCard(ctx)
		if err != nil {
			if errors.Is(err, cardreader.ErrNoCardPresented) {
				p.metrics.ObserveRead(metrics.ReadNoCard)
				p.logger.Debug("no card presented")
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			p.metrics.ObserveRead(metrics.ReadFault)
			p.logger.Error("card reader fault", zap.Error(err))
			return fmt.Errorf("%w: %w", ErrReaderFault, err)
		}
		p.metrics.ObserveRead(metrics.ReadCard)

		switch card.Type {
		case cardreader.CardTypeBank:
			p.metrics.ObserveCard(metrics.CardBank)
			p.logger.Warn("received bank card, not handled")
			continue
		case cardreader.CardTypeMembership:
			p.metrics.ObserveCard(metrics.CardMembership)
		default:
			return fmt.Errorf("%w: unknown card type %s", ErrReaderFault, card.Type)
		}

		if err := p.dispatch(ctx, card); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		timer.Reset()
		start := time.Now()
		if err := timer.Wait(ctx); err != nil {
			return nil
		}
		p.metrics.ObserveDebounceWait(time.Since(start).Seconds())
		p.logger.Debug("cooldown elapsed, reading card again")
	}
}

// dispatch 构造令牌并交给当前下游；未注册下游时丢弃
func (p *Provider) dispatch(ctx context.Context, card *cardreader.CardInfo) error {
	token, err := TokenFromCard(card)
	if err != nil {
		p.logger.Error("membership card rejected", zap.Error(err))
		return err
	}
	p.logger.Debug("token built",
		zap.String("id_token", token.IDToken),
		zap.String("authorization_type", string(token.AuthorizationType)))

	sink := p.sinks.Current()
	if sink == nil {
		p.metrics.ObserveDispatch(metrics.DispatchDropped)
		p.logger.Debug("no token sink registered, token dropped", zap.String("id_token", token.IDToken))
		return nil
	}

	if err := sink.ProvideToken(ctx, token); err != nil {
		p.metrics.ObserveDispatch(metrics.DispatchRejected)
		p.logger.Error("token sink rejected token", zap.String("id_token", token.IDToken), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSinkRejected, err)
	}
	p.metrics.ObserveDispatch(metrics.DispatchDelivered)
	p.logger.Info("token provided", zap.String("id_token", token.IDToken))
	return nil
}
