package health

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"failover_trader/internal/modules/config"
	"failover_trader/internal/modules/health/service"
	"failover_trader/internal/runner/router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Addr string // например ":8080"
}

func NewConfig(cfg *config.Config) Config {
	port := cfg.Service.AdminPort
	if port == 0 {
		port = 8080
	}
	return Config{Addr: fmt.Sprintf("%s:%d", cfg.Service.Host, port)}
}

func newEngine(state *service.State, r *router.Router) *gin.Engine {
	return service.NewEngine(state, r, prometheus.DefaultGatherer)
}

func RunHTTP(lc fx.Lifecycle, cfg Config, engine *gin.Engine, state *service.State, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
					log.Error("health server stopped", zap.Error(err))
				}
			}()
			// модуль регистрируется последним: к этому моменту остальные хуки уже отработали
			state.SetReady(true)
			log.Info("health server started", zap.String("addr", cfg.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewConfig,
			newEngine,
		),
		fx.Invoke(RunHTTP),
	)
}
