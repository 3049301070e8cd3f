package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taoyao-code/card-terminal/internal/metrics"
)

// NewMetrics 初始化注册表与终端指标
func NewMetrics() (*prometheus.Registry, *metrics.TerminalMetrics) {
	reg := metrics.NewRegistry()
	tm := metrics.NewTerminalMetrics(reg)
	return reg, tm
}
