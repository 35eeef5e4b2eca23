package telegram

import (
	"context"

	"failover_trader/internal/modules/telegram_bot/service"
	"failover_trader/internal/notify"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram, // *service.Telegram, nil без токена
		),
		fx.Invoke(
			func(lc fx.Lifecycle, t *service.Telegram, d *notify.Dispatcher) {
				if t == nil {
					return
				}
				d.Register(t)

				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						go t.Start(ctx)
						return nil
					},
					OnStop: func(_ context.Context) error {
						cancel()
						t.Stop()
						return nil
					},
				})
			},
		),
	)
}
