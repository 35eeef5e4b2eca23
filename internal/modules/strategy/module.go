package strategy

import (
	"failover_trader/internal/modules/strategy/service"
	"failover_trader/internal/runner/sessions"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func asEntryGate(g *service.EntryGate) sessions.EntryGate { return g }

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			service.NewEngineFromConfig,    // *service.Engine
			service.NewEntryGateFromConfig, // *service.EntryGate
			asEntryGate,                    // sessions.EntryGate
		),
		fx.Invoke(func(e *service.Engine, log *zap.Logger) {
			p := e.Params()
			log.Info("strategy loaded",
				zap.Float64("leverage", p.Leverage),
				zap.Float64("take_profit_pct", p.TakeProfitPct),
				zap.Float64("stop_loss_pct", p.StopLossPct),
				zap.Int("startup_candles", p.StartupCandles),
			)
		}),
	)
}
