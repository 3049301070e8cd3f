package sink

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/metrics"
	"github.com/taoyao-code/card-terminal/internal/provider"
	"github.com/taoyao-code/card-terminal/internal/storage/pg"
)

// Appender 流水写入
type Appender interface {
	Append(ctx context.Context, e pg.JournalEntry) error
}

// Journaled 流水装饰器：下游确认后写入流水。
// 流水写入失败只记录日志，不影响已完成的投递。
type Journaled struct {
	next       provider.TokenSink
	journal    Appender
	sinkName   string
	terminalID string
	logger     *zap.Logger
	metrics    *metrics.TerminalMetrics
	now        func() time.Time
}

// NewJournaled 创建流水装饰器
func NewJournaled(next provider.TokenSink, journal Appender, sinkName, terminalID string, logger *zap.Logger, m *metrics.TerminalMetrics) *Journaled {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journaled{
		next:       next,
		journal:    journal,
		sinkName:   sinkName,
		terminalID: terminalID,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// ProvideToken 实现 provider.TokenSink
func (j *Journaled) ProvideToken(ctx context.Context, token provider.ProvidedIDToken) error {
	id, ok := EventIDFromContext(ctx)
	if !ok {
		id = uuid.New()
		ctx = WithEventID(ctx, id)
	}
	if err := j.next.ProvideToken(ctx, token); err != nil {
		return err
	}

	entry := pg.JournalEntry{
		EventID:    id,
		TerminalID: j.terminalID,
		IDToken:    token.IDToken,
		AuthType:   string(token.AuthorizationType),
		Sink:       j.sinkName,
		ProvidedAt: j.now().UTC(),
	}
	if err := j.journal.Append(ctx, entry); err != nil {
		j.metrics.IncJournalError()
		j.logger.Error("token journal append failed",
			zap.String("event_id", id.String()),
			zap.String("id_token", token.IDToken),
			zap.Error(err))
	}
	return nil
}
