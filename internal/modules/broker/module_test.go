package broker

import (
	"context"
	"testing"

	"failover_trader/internal/metrics"
	"failover_trader/internal/models"
	"failover_trader/internal/modules/broker/service"
	"failover_trader/internal/modules/config"
	"failover_trader/internal/modules/postgres"
	"failover_trader/internal/runner/sessions"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Capital:  100000,
		Strategy: models.DefaultStrategyParams(),
	}
	cfg.Brokers = []models.BrokerConfig{
		{Name: "sim-a", Kind: models.BrokerSimulated, Role: models.RolePrimary},
		{Name: "sim-b", Kind: models.BrokerSimulated, Role: models.RoleBackup},
	}
	return cfg
}

func TestModule_WiresPairFromConfig(t *testing.T) {
	var (
		pair *service.Pair
		disp sessions.Dispatcher
	)
	app := fxtest.New(t,
		fx.Supply(testConfig()),
		fx.Provide(
			zap.NewNop,
			func() *metrics.Metrics { return metrics.NewMetrics(prometheus.NewRegistry()) },
		),
		postgres.Module(),
		Module(),
		fx.Populate(&pair, &disp),
	)
	app.RequireStart()
	defer app.RequireStop()

	names := []string{}
	for _, a := range pair.Adapters() {
		names = append(names, a.Name())
	}
	if len(names) != 2 || names[0] != "sim-a" || names[1] != "sim-b" {
		t.Fatalf("adapters = %v", names)
	}

	res, err := disp.Dispatch(context.Background(), models.OrderRequest{
		Instrument: "TCS",
		Side:       models.SideBuy,
		Quantity:   1,
		RefPrice:   3500,
	})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Broker != "sim-a" || res.Role != models.RolePrimary {
		t.Fatalf("result %+v", res)
	}
}

func TestModule_BrokersFromDBNeedsDSN(t *testing.T) {
	cfg := testConfig()
	cfg.BrokersFromDB = true

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(
			zap.NewNop,
			func() *metrics.Metrics { return metrics.NewMetrics(prometheus.NewRegistry()) },
		),
		postgres.Module(),
		Module(),
		fx.Invoke(func(*service.Pair) {}),
	)
	if app.Err() == nil {
		t.Fatalf("expected construction error")
	}
}
