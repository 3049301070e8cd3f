package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/card-terminal/internal/health"
	redisstorage "github.com/taoyao-code/card-terminal/internal/storage/redis"
)

// tokenBacklogLimit 令牌队列积压告警阈值
const tokenBacklogLimit = 1000

// NewHealthAggregator 创建健康检查聚合器，初始只包含读卡检查器
func NewHealthAggregator(ready *health.Readiness) *health.Aggregator {
	return health.NewAggregator(
		health.NewReaderChecker(ready),
	)
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator) {
	health.RegisterHTTPRoutes(r, aggregator)
}

// AddDatabaseChecker 添加流水数据库检查器
func AddDatabaseChecker(aggregator *health.Aggregator, pool *pgxpool.Pool) {
	if pool != nil {
		aggregator.AddChecker(health.NewDatabaseChecker(pool))
	}
}

// AddRedisChecker 添加Redis检查器；queue 非空时同时检查积压
func AddRedisChecker(aggregator *health.Aggregator, client *redisstorage.Client, queue *redisstorage.TokenQueue) {
	if client != nil {
		aggregator.AddChecker(health.NewRedisChecker(client, queue, tokenBacklogLimit))
	}
}
