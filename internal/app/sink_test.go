package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
	"github.com/taoyao-code/card-terminal/internal/sink"
)

func baseConfig() *cfgpkg.Config {
	return &cfgpkg.Config{
		Terminal: cfgpkg.TerminalConfig{TerminalID: "T-1"},
		Sink: cfgpkg.SinkConfig{
			Kind:    cfgpkg.SinkKindLog,
			Redis:   cfgpkg.SinkRedisConfig{Key: "terminal:tokens"},
			Webhook: cfgpkg.SinkWebhookConfig{URL: "http://127.0.0.1:1/hook", Retries: 1, Timeout: time.Second},
		},
	}
}

func TestSinkFactory_Build(t *testing.T) {
	tests := []struct {
		name string
		kind string
		want any
	}{
		{"日志", cfgpkg.SinkKindLog, &sink.Log{}},
		{"默认日志", "", &sink.Log{}},
		{"webhook", cfgpkg.SinkKindWebhook, &sink.Webhook{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			cfg.Sink.Kind = tt.kind
			f := NewSinkFactory(cfg, nil, zap.NewNop(), nil)
			s, err := f.Build(context.Background())
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
			client, queue := f.Redis()
			assert.Nil(t, client)
			assert.Nil(t, queue)
			assert.NoError(t, f.Close())
		})
	}
}

func TestSinkFactory_UnknownKind(t *testing.T) {
	cfg := baseConfig()
	cfg.Sink.Kind = "mqtt"
	_, err := NewSinkFactory(cfg, nil, nil, nil).Build(context.Background())
	assert.Error(t, err)
}

func TestSinkFactory_RedisUnavailable(t *testing.T) {
	cfg := baseConfig()
	cfg.Sink.Kind = cfgpkg.SinkKindRedis
	cfg.Redis = cfgpkg.RedisConfig{Enabled: true, Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond}

	f := NewSinkFactory(cfg, nil, zap.NewNop(), nil)
	_, err := f.Build(context.Background())
	assert.Error(t, err, "Redis不可达时构建失败，由通告器重试")
	client, _ := f.Redis()
	assert.Nil(t, client)
}

func TestSinkFactory_RedisDisabled(t *testing.T) {
	cfg := baseConfig()
	cfg.Sink.Kind = cfgpkg.SinkKindRedis

	_, err := NewSinkFactory(cfg, nil, zap.NewNop(), nil).Build(context.Background())
	assert.Error(t, err)
}
