package health

import (
	"context"
	"time"
)

// ReaderChecker 读卡会话与令牌下游检查器
type ReaderChecker struct {
	ready *Readiness
}

// NewReaderChecker 创建读卡检查器
func NewReaderChecker(ready *Readiness) *ReaderChecker {
	return &ReaderChecker{ready: ready}
}

// Name 返回检查器名称
func (c *ReaderChecker) Name() string {
	return "reader"
}

// Check 执行健康检查
func (c *ReaderChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	details := map[string]interface{}{
		"reader_open":     c.ready.ReaderReady(),
		"sink_registered": c.ready.SinkReady(),
	}

	// 读卡会话关闭：轮询已停止
	if !c.ready.ReaderReady() {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "reader session not open",
			Details: details,
			Latency: time.Since(start),
		}
	}

	// 下游未就绪：令牌会被丢弃，但轮询仍在运行
	if !c.ready.SinkReady() {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "no token sink registered",
			Details: details,
			Latency: time.Since(start),
		}
	}

	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: details,
		Latency: time.Since(start),
	}
}
