package sink

import (
	"context"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/provider"
)

// Log 只记录日志的下游，用于台架调试
type Log struct {
	logger *zap.Logger
}

// NewLog 创建日志下游
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// ProvideToken 实现 provider.TokenSink
func (l *Log) ProvideToken(_ context.Context, token provider.ProvidedIDToken) error {
	l.logger.Info("token received",
		zap.String("id_token", token.IDToken),
		zap.String("authorization_type", string(token.AuthorizationType)))
	return nil
}
