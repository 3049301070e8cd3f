package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/card-terminal/internal/config"
	"github.com/taoyao-code/card-terminal/internal/migrate"
	pgstorage "github.com/taoyao-code/card-terminal/internal/storage/pg"
)

// ConnectDBAndMigrate 建立流水数据库连接并按需执行内置迁移
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dbpool, err := pgstorage.NewPool(ctx, cfg, log.Named("pg"))
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, err
	}
	if cfg.AutoMigrate {
		n, err := (migrate.Runner{FS: pgstorage.Migrations, Logger: log}).Up(ctx, dbpool)
		if err != nil {
			log.Error("db migrate error", zap.Error(err))
			dbpool.Close()
			return nil, err
		}
		log.Info("db migrations applied", zap.Int("count", n))
	}
	return dbpool, nil
}
