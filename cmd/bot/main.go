package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"failover_trader/internal/metrics"
	"failover_trader/internal/modules/bootstrap"
	"failover_trader/internal/modules/broker"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/modules/feed"
	"failover_trader/internal/modules/health"
	"failover_trader/internal/modules/postgres"
	"failover_trader/internal/modules/strategy"
	telegram "failover_trader/internal/modules/telegram_bot"
	"failover_trader/internal/notify"
	"failover_trader/internal/runner"
	"failover_trader/pkg/logger"
	"failover_trader/pkg/tracing"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.LogLevel)
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		config.Module(),
		fx.Provide(
			newLogger,          // *zap.Logger
			metrics.NewDefault, // *metrics.Metrics
		),
		fx.Invoke(initTracing),

		// порядок модулей = порядок OnStart хуков
		notify.Module(),
		postgres.Module(),
		broker.Module(),
		strategy.Module(),
		runner.Module(),
		bootstrap.Module(),
		telegram.Module(),
		feed.Module(),
		health.Module(),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	stopCtx, cancelStop := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
