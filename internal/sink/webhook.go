package sink

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/metrics"
	"github.com/taoyao-code/card-terminal/internal/provider"
	"github.com/taoyao-code/card-terminal/internal/thirdparty"
)

// Webhook 通过签名 HTTP 回调投递令牌的下游
type Webhook struct {
	pusher     *thirdparty.Pusher
	url        string
	terminalID string
	logger     *zap.Logger
	metrics    *metrics.TerminalMetrics
	now        func() time.Time
}

// NewWebhook 创建 Webhook 下游
func NewWebhook(pusher *thirdparty.Pusher, url, terminalID string, logger *zap.Logger, m *metrics.TerminalMetrics) *Webhook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Webhook{
		pusher:     pusher,
		url:        url,
		terminalID: terminalID,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// ProvideToken 实现 provider.TokenSink
func (w *Webhook) ProvideToken(ctx context.Context, token provider.ProvidedIDToken) error {
	ev := NewEvent(ctx, w.terminalID, token, w.now())
	start := time.Now()
	code, _, err := w.pusher.SendJSON(ctx, w.url, ev)
	w.metrics.ObserveWebhookPush(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("webhook push: %w", err)
	}
	w.logger.Debug("webhook push ok",
		zap.String("event_id", ev.ID.String()),
		zap.Int("status", code))
	return nil
}
