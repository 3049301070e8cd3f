package app

import (
	"net/http"

	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
	"github.com/taoyao-code/card-terminal/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器；metrics.enable 为 false 时不暴露指标
func NewHTTPServer(cfg cfgpkg.HTTPConfig, mcfg cfgpkg.MetricsConfig, metricsHandler http.Handler, readyFn func() bool) *httpserver.Server {
	if !mcfg.Enable {
		metricsHandler = nil
	}
	return httpserver.New(cfg, mcfg.Path, metricsHandler, readyFn)
}
