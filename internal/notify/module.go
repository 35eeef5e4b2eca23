package notify

import (
	"context"

	"failover_trader/internal/metrics"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/runner/sessions"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newDispatcher(cfg *config.Config, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	d := NewDispatcher(log, m, cfg.EventBuffer)
	d.Register(NewLogSink(log))
	return d
}

func asEventSink(d *Dispatcher) sessions.EventSink { return d }

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			newDispatcher, // *Dispatcher
			asEventSink,   // sessions.EventSink
		),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, d *Dispatcher, log *zap.Logger) {
			var rdb *redis.Client
			if cfg.Redis.Addr != "" {
				rdb = redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				d.Register(NewRedisSink(rdb, cfg.Redis.Channel))
			}

			ctx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(start context.Context) error {
					if rdb != nil {
						if err := rdb.Ping(start).Err(); err != nil {
							// события всё равно пойдут в лог и Telegram
							log.Warn("redis unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
						}
					}
					go d.Run(ctx)
					return nil
				},
				OnStop: func(stop context.Context) error {
					cancel()
					select {
					case <-d.Done():
					case <-stop.Done():
					}
					if rdb != nil {
						return rdb.Close()
					}
					return nil
				},
			})
		}),
	)
}
