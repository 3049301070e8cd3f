package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
	"github.com/taoyao-code/card-terminal/internal/metrics"
	"github.com/taoyao-code/card-terminal/internal/provider"
	"github.com/taoyao-code/card-terminal/internal/sink"
	pgstorage "github.com/taoyao-code/card-terminal/internal/storage/pg"
	redisstorage "github.com/taoyao-code/card-terminal/internal/storage/redis"
	"github.com/taoyao-code/card-terminal/internal/thirdparty"
)

// SinkFactory 按配置构建令牌下游，Redis 连接在首次成功构建时建立
type SinkFactory struct {
	cfg     *cfgpkg.Config
	journal *pgstorage.Journal
	logger  *zap.Logger
	metrics *metrics.TerminalMetrics

	mu    sync.Mutex
	redis *redisstorage.Client
	queue *redisstorage.TokenQueue
}

// NewSinkFactory 创建下游工厂；journal 为 nil 时不记录流水
func NewSinkFactory(cfg *cfgpkg.Config, journal *pgstorage.Journal, logger *zap.Logger, m *metrics.TerminalMetrics) *SinkFactory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SinkFactory{cfg: cfg, journal: journal, logger: logger, metrics: m}
}

// Build 构建一次下游；依赖未就绪时返回错误，由调用方重试
func (f *SinkFactory) Build(ctx context.Context) (provider.TokenSink, error) {
	needRedis := f.cfg.Sink.Kind == cfgpkg.SinkKindRedis || (f.cfg.Sink.DedupTTL > 0 && f.cfg.Redis.Enabled)
	if needRedis {
		if err := f.ensureRedis(ctx); err != nil {
			return nil, err
		}
	}

	var base provider.TokenSink
	switch f.cfg.Sink.Kind {
	case cfgpkg.SinkKindLog, "":
		base = sink.NewLog(f.logger.Named("sink"))
	case cfgpkg.SinkKindRedis:
		base = sink.NewRedis(f.queue, f.cfg.Terminal.TerminalID)
	case cfgpkg.SinkKindWebhook:
		wc := f.cfg.Sink.Webhook
		pusher := thirdparty.NewPusher(&http.Client{Timeout: wc.Timeout}, wc.APIKey, wc.Secret)
		if wc.Retries >= 0 {
			pusher.Retries = wc.Retries
		}
		base = sink.NewWebhook(pusher, wc.URL, f.cfg.Terminal.TerminalID, f.logger.Named("webhook"), f.metrics)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", f.cfg.Sink.Kind)
	}

	// 装饰顺序：去重 -> 流水 -> 下游，重复令牌不写流水
	out := base
	if f.journal != nil {
		out = sink.NewJournaled(out, f.journal, f.kind(), f.cfg.Terminal.TerminalID, f.logger.Named("journal"), f.metrics)
	}
	if f.cfg.Sink.DedupTTL > 0 && f.redis != nil {
		dd := thirdparty.NewDeduper(f.redis, f.logger.Named("dedup"), f.cfg.Sink.DedupTTL)
		out = sink.NewDeduped(out, dd, f.logger.Named("dedup"), f.metrics)
	}

	f.logger.Info("token sink built",
		zap.String("kind", f.kind()),
		zap.Bool("journal", f.journal != nil),
		zap.Duration("dedup_ttl", f.cfg.Sink.DedupTTL))
	return out, nil
}

func (f *SinkFactory) kind() string {
	if f.cfg.Sink.Kind == "" {
		return cfgpkg.SinkKindLog
	}
	return f.cfg.Sink.Kind
}

func (f *SinkFactory) ensureRedis(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redis != nil {
		return f.redis.HealthCheck(ctx)
	}
	client, err := NewRedisClient(ctx, f.cfg.Redis, f.logger)
	if err != nil {
		return err
	}
	if client == nil {
		return fmt.Errorf("redis is not enabled")
	}
	f.redis = client
	f.queue = redisstorage.NewTokenQueue(client, f.cfg.Sink.Redis.Key, f.cfg.Sink.Redis.Channel)
	return nil
}

// Redis 已建立的 Redis 客户端与令牌队列，未建立时为 nil
func (f *SinkFactory) Redis() (*redisstorage.Client, *redisstorage.TokenQueue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redis, f.queue
}

// Close 释放 Redis 连接
func (f *SinkFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.redis == nil {
		return nil
	}
	err := f.redis.Close()
	f.redis, f.queue = nil, nil
	return err
}
