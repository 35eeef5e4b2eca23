package postgres

import (
	"context"
	"errors"
	"fmt"

	"failover_trader/internal/modules/config"
	"failover_trader/pkg/db"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newTxManager(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*db.PgTxManager, error) {
	if cfg.DB == "" {
		// база нужна только для broker_configs
		if cfg.BrokersFromDB {
			return nil, errors.New("brokers_from_db requires DATABASE_DSN")
		}
		log.Info("postgres disabled: no dsn")
		return nil, nil
	}

	ctx := context.Background()
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{
		DSN:      cfg.DB,
		MaxConns: 4,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create poolMaster: %w", err)
	}
	if err := poolMaster.Ping(ctx); err != nil {
		poolMaster.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	m := db.NewPgTxManager(poolMaster)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			m.Close()
			return nil
		},
	})
	return m, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			newTxManager, // *db.PgTxManager, nil без DSN
		),
	)
}
