package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/taoyao-code/card-terminal/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
	"github.com/taoyao-code/card-terminal/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "config file path (default: $TERMINAL_CONFIG or configs/terminal.yaml)")
	flag.Parse()

	// 1) 加载并校验配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	// 3) 运行直到信号或致命错误
	if err := bootstrap.Run(context.Background(), cfg, logger); err != nil {
		logger.Error("card terminal stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("card terminal stopped")
	_ = logger.Sync()
}
