package broker

import (
	"context"

	"failover_trader/internal/metrics"
	"failover_trader/internal/modules/broker/service"
	"failover_trader/internal/modules/broker/service/pg"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/runner/sessions"
	"failover_trader/pkg/db"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newResolver(cfg *config.Config) (*service.CredentialResolver, error) {
	return service.NewCredentialResolver(service.VaultConfig{
		Addr:  cfg.Vault.Addr,
		Token: cfg.Vault.Token,
		Mount: cfg.Vault.Mount,
	})
}

func newFailover(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) *service.Failover {
	return service.NewFailover(log, m, cfg.RequestTimeout)
}

// newPair брокеры из файла конфига или из broker_configs.
func newPair(
	cfg *config.Config,
	txm *db.PgTxManager,
	creds *service.CredentialResolver,
	f *service.Failover,
	log *zap.Logger,
) (*service.Pair, error) {
	ctx := context.Background()
	brokers := cfg.Brokers

	if cfg.BrokersFromDB {
		list, err := pg.NewBrokerConfigs(txm).List(ctx)
		if err != nil {
			return nil, err
		}
		if err := config.ValidateBrokers(list); err != nil {
			return nil, errors.Wrap(err, "broker_configs")
		}
		brokers = list
	}

	for _, b := range brokers {
		log.Info("broker configured",
			zap.String("name", b.Name),
			zap.String("kind", string(b.Kind)),
			zap.String("role", string(b.Role)),
		)
	}
	return service.BuildPair(ctx, brokers, creds, f, cfg.Strategy.MaxRetries)
}

func asDispatcher(p *service.Pair) sessions.Dispatcher { return p }

func Module() fx.Option {
	return fx.Module("broker",
		fx.Provide(
			newResolver, // *service.CredentialResolver
			newFailover, // *service.Failover
			newPair,     // *service.Pair
			asDispatcher,
		),
	)
}
