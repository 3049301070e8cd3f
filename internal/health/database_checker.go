package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseChecker 令牌流水数据库检查器
type DatabaseChecker struct {
	pool *pgxpool.Pool
}

// NewDatabaseChecker 创建数据库健康检查器
func NewDatabaseChecker(pool *pgxpool.Pool) *DatabaseChecker {
	return &DatabaseChecker{pool: pool}
}

// Name 返回检查器名称
func (c *DatabaseChecker) Name() string {
	return "journal"
}

// Check 执行健康检查
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	if err := c.pool.Ping(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	stats := c.pool.Stat()
	details := map[string]interface{}{
		"total_conns":    stats.TotalConns(),
		"acquired_conns": stats.AcquiredConns(),
		"max_conns":      stats.MaxConns(),
	}

	// 流水表不可读时仍可投递令牌，只是无法留痕
	var lastHour int64
	err := c.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM token_journal WHERE provided_at > NOW() - INTERVAL '1 hour'`).Scan(&lastHour)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("journal query failed: %v", err),
			Details: details,
			Latency: time.Since(start),
		}
	}
	details["tokens_last_hour"] = lastHour

	status := StatusHealthy
	message := "ok"
	if stats.MaxConns() > 0 && stats.AcquiredConns() >= stats.MaxConns() {
		status = StatusDegraded
		message = "connection pool exhausted"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
