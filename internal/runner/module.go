package runner

import (
	"context"

	"failover_trader/internal/metrics"
	"failover_trader/internal/modules/broker/service"
	"failover_trader/internal/modules/config"
	strategy "failover_trader/internal/modules/strategy/service"
	"failover_trader/internal/runner/router"
	"failover_trader/internal/runner/sessions"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newRouter(cfg *config.Config, log *zap.Logger) *router.Router {
	return router.NewRouter(log, cfg.InboxSize)
}

type sessionDeps struct {
	fx.In

	Cfg     *config.Config
	Engine  *strategy.Engine
	Gate    sessions.EntryGate
	Disp    sessions.Dispatcher
	Events  sessions.EventSink
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// newSessions по одной сессии на инструмент из конфига.
func newSessions(d sessionDeps) []*sessions.Session {
	out := make([]*sessions.Session, 0, len(d.Cfg.Instruments))
	for _, inst := range d.Cfg.Instruments {
		out = append(out, sessions.NewSession(
			sessions.Config{Instrument: inst, Capital: d.Cfg.Capital},
			d.Engine, d.Gate, d.Disp, d.Events, d.Log, d.Metrics,
		))
	}
	return out
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newRouter,   // *router.Router
			newSessions, // []*sessions.Session
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			r *router.Router,
			list []*sessions.Session,
			pair *service.Pair,
			log *zap.Logger,
		) {
			ctx, cancel := context.WithCancel(context.Background())
			// акторы поднимаются сразу, чтобы прогрев видел сессии в роутере
			for _, s := range list {
				r.Enable(ctx, s)
			}

			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					pair.Run(ctx)
					go r.FanIn(ctx, pair.Fills())
					log.Info("runner started", zap.Int("instruments", len(list)))
					return nil
				},
				OnStop: func(_ context.Context) error {
					cancel()
					r.Stop()
					return nil
				},
			})
		}),
	)
}
