package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
	"github.com/taoyao-code/card-terminal/internal/provider"
)

// SinkBuilder 构建一次令牌下游
type SinkBuilder func(ctx context.Context) (provider.TokenSink, error)

// Announcer 下游就绪通告：按限速重试构建下游，成功后恰好回调一次
type Announcer struct {
	build   SinkBuilder
	onReady func(provider.TokenSink)
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewAnnouncer 创建就绪通告器
func NewAnnouncer(build SinkBuilder, cfg cfgpkg.ReadinessConfig, onReady func(provider.TokenSink), logger *zap.Logger) *Announcer {
	if logger == nil {
		logger = zap.NewNop()
	}
	perSec := cfg.AttemptsPerSecond
	if perSec <= 0 {
		perSec = 0.5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Announcer{
		build:   build,
		onReady: onReady,
		limiter: rate.NewLimiter(rate.Limit(perSec), burst),
		logger:  logger,
	}
}

// Run 阻塞直到下游就绪（返回 nil）或 ctx 结束（返回 ctx.Err()）
func (a *Announcer) Run(ctx context.Context) error {
	start := time.Now()
	for attempt := 1; ; attempt++ {
		if err := a.pace(ctx); err != nil {
			return err
		}

		s, err := a.build(ctx)
		if err == nil {
			a.onReady(s)
			a.logger.Info("token sink ready",
				zap.Int("attempts", attempt),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.Warn("token sink not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
}

// pace 按限速器节奏等待下一次尝试
func (a *Announcer) pace(ctx context.Context) error {
	r := a.limiter.Reserve()
	delay := r.Delay()
	if delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
