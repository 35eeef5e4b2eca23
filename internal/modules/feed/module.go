package feed

import (
	"context"

	"failover_trader/internal/models"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/modules/feed/service"
	health "failover_trader/internal/modules/health/service"
	"failover_trader/internal/runner/router"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newClient(cfg *config.Config, log *zap.Logger) *service.Client {
	return service.NewClient(cfg.Feed.URL, cfg.Instruments, cfg.Feed.ReconnectDelay, log)
}

// Module подписка на бары пайплайна индикаторов и раздача их роутеру.
func Module() fx.Option {
	return fx.Module("feed",
		fx.Provide(
			newClient, // *service.Client
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client, r *router.Router, st *health.State) {
			c.OnConnState(st.SetFeedConnected)
			onBar := func(inst string, bar models.Bar, snap models.IndicatorSnapshot) bool {
				st.TouchBar(bar.Time)
				return r.OnBar(inst, bar, snap)
			}

			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.Run(ctx, onBar)
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
