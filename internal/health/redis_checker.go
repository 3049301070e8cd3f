package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/taoyao-code/card-terminal/internal/storage/redis"
)

// RedisChecker Redis健康检查器，可选上报令牌队列积压
type RedisChecker struct {
	client       *redisstorage.Client
	queue        *redisstorage.TokenQueue
	backlogLimit int64
}

// NewRedisChecker 创建Redis健康检查器；queue 为 nil 时不检查积压
func NewRedisChecker(client *redisstorage.Client, queue *redisstorage.TokenQueue, backlogLimit int64) *RedisChecker {
	return &RedisChecker{client: client, queue: queue, backlogLimit: backlogLimit}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check 执行健康检查
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.client.Stats()
	status := StatusHealthy
	message := "ok"
	details := map[string]interface{}{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
	}

	if c.queue != nil {
		backlog, err := c.queue.Len(ctx)
		if err != nil {
			status = StatusDegraded
			message = fmt.Sprintf("queue length unavailable: %v", err)
		} else {
			details["queue_key"] = c.queue.Key()
			details["queue_length"] = backlog
			// 消费方长时间未取走令牌
			if c.backlogLimit > 0 && backlog > c.backlogLimit {
				status = StatusDegraded
				message = "token queue backlog"
			}
		}
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
