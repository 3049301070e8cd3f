package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// 标签取值
const (
	ReadCard   = "card"
	ReadNoCard = "no_card"
	ReadFault  = "fault"

	CardBank       = "bank"
	CardMembership = "membership"

	DispatchDelivered = "delivered"
	DispatchDropped   = "dropped"
	DispatchRejected  = "rejected"
	DispatchDuplicate = "duplicate"
)

// TerminalMetrics 读卡与令牌分发指标
type TerminalMetrics struct {
	CardReadTotal       *prometheus.CounterVec // labels: result=card|no_card|fault
	CardClassifiedTotal *prometheus.CounterVec // labels: type=bank|membership
	TokenDispatchTotal  *prometheus.CounterVec // labels: result=delivered|dropped|rejected|duplicate
	SinkRegistered      prometheus.Gauge       // 1 表示下游已就绪
	DebounceWait        prometheus.Histogram   // 冷却等待时长
	WebhookPushDuration prometheus.Histogram   // webhook 推送耗时
	JournalErrorsTotal  prometheus.Counter     // 流水写入失败次数
}

// NewTerminalMetrics 注册并返回终端指标
func NewTerminalMetrics(reg prometheus.Registerer) *TerminalMetrics {
	m := &TerminalMetrics{
		CardReadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_read_total",
			Help: "Card read attempts by outcome.",
		}, []string{"result"}),
		CardClassifiedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "card_classified_total",
			Help: "Successfully read cards by card type.",
		}, []string{"type"}),
		TokenDispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "token_dispatch_total",
			Help: "Provided token dispatch attempts by result.",
		}, []string{"result"}),
		SinkRegistered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "token_sink_registered",
			Help: "Whether a token sink is currently registered (0/1).",
		}),
		DebounceWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "debounce_wait_seconds",
			Help:    "Time spent waiting for the debounce cooldown.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		}),
		WebhookPushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "webhook_push_duration_seconds",
			Help:    "Duration of token pushes to the webhook sink.",
			Buckets: prometheus.DefBuckets,
		}),
		JournalErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "token_journal_errors_total",
			Help: "Token journal append failures.",
		}),
	}
	reg.MustRegister(
		m.CardReadTotal,
		m.CardClassifiedTotal,
		m.TokenDispatchTotal,
		m.SinkRegistered,
		m.DebounceWait,
		m.WebhookPushDuration,
		m.JournalErrorsTotal,
	)
	return m
}

// ObserveRead 记录一次读卡结果
func (m *TerminalMetrics) ObserveRead(result string) {
	if m == nil {
		return
	}
	m.CardReadTotal.WithLabelValues(result).Inc()
}

// ObserveCard 记录一次卡类型识别
func (m *TerminalMetrics) ObserveCard(cardType string) {
	if m == nil {
		return
	}
	m.CardClassifiedTotal.WithLabelValues(cardType).Inc()
}

// ObserveDispatch 记录一次令牌分发结果
func (m *TerminalMetrics) ObserveDispatch(result string) {
	if m == nil {
		return
	}
	m.TokenDispatchTotal.WithLabelValues(result).Inc()
}

// SetSinkRegistered 更新下游注册状态
func (m *TerminalMetrics) SetSinkRegistered(v bool) {
	if m == nil {
		return
	}
	if v {
		m.SinkRegistered.Set(1)
		return
	}
	m.SinkRegistered.Set(0)
}

// ObserveDebounceWait 记录冷却等待秒数
func (m *TerminalMetrics) ObserveDebounceWait(seconds float64) {
	if m == nil {
		return
	}
	m.DebounceWait.Observe(seconds)
}

// ObserveWebhookPush 记录 webhook 推送耗时
func (m *TerminalMetrics) ObserveWebhookPush(seconds float64) {
	if m == nil {
		return
	}
	m.WebhookPushDuration.Observe(seconds)
}

// IncJournalError 记录一次流水写入失败
func (m *TerminalMetrics) IncJournalError() {
	if m == nil {
		return
	}
	m.JournalErrorsTotal.Inc()
}
