// Package api 提供令牌流水查询接口
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/api/middleware"
)

// RegisterTokenRoutes 注册令牌流水查询路由
func RegisterTokenRoutes(r *gin.Engine, journal JournalReader, authCfg middleware.AuthConfig, logger *zap.Logger) {
	if r == nil || journal == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	handler := NewTokenHandler(journal, logger)

	api := r.Group("/api")
	api.Use(middleware.RequestTracing())
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}
	api.Use(middleware.RateLimit(middleware.RateLimitConfig{Enabled: true, RequestsPerMin: 120, BurstSize: 20}))

	api.GET("/tokens/recent", handler.Recent)

	logger.Info("token routes registered")
}
