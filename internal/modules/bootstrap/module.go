package bootstrap

import (
	"context"

	"failover_trader/internal/modules/bootstrap/service"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/runner/router"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newWarmuper(r *router.Router, log *zap.Logger) *service.Warmuper {
	return service.NewWarmuper(r, log)
}

// Module прогрев сессий до подключения фида. Хук синхронный,
// поэтому модуль регистрируется раньше feed.
func Module() fx.Option {
	return fx.Module("bootstrap",
		fx.Provide(
			newWarmuper, // *service.Warmuper
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, wu *service.Warmuper, log *zap.Logger) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					n, err := wu.WarmupFile(ctx, cfg.WarmupFile)
					if err != nil {
						return err
					}
					if n > 0 {
						log.Info("warmup done", zap.Int("sessions", n))
					}
					return nil
				},
			})
		}),
	)
}
