package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/metrics"
	"github.com/taoyao-code/card-terminal/internal/provider"
)

// Deduper 去重存储
type Deduper interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Deduped 去重装饰器：去重窗口内重复出现的令牌直接确认，不再转发
type Deduped struct {
	next    provider.TokenSink
	dedup   Deduper
	logger  *zap.Logger
	metrics *metrics.TerminalMetrics
}

// NewDeduped 创建去重装饰器
func NewDeduped(next provider.TokenSink, dedup Deduper, logger *zap.Logger, m *metrics.TerminalMetrics) *Deduped {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduped{next: next, dedup: dedup, logger: logger, metrics: m}
}

// ProvideToken 实现 provider.TokenSink
func (d *Deduped) ProvideToken(ctx context.Context, token provider.ProvidedIDToken) error {
	dup, err := d.dedup.IsDuplicate(ctx, token.IDToken)
	if err != nil {
		return fmt.Errorf("dedup check: %w", err)
	}
	if dup {
		d.metrics.ObserveDispatch(metrics.DispatchDuplicate)
		d.logger.Info("token already in process, skipped", zap.String("id_token", token.IDToken))
		return nil
	}
	if err := d.next.ProvideToken(ctx, token); err != nil {
		// 投递失败时释放占位，允许下一次出示重新投递
		if rerr := d.dedup.Release(ctx, token.IDToken); rerr != nil {
			d.logger.Warn("dedup release failed", zap.String("id_token", token.IDToken), zap.Error(rerr))
		}
		return err
	}
	return nil
}
