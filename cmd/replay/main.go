package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	_ "time/tzdata"

	"failover_trader/internal/models"
	"failover_trader/internal/modules/config"
	"failover_trader/pkg/logger"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("REPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "replay --data bars.csv",
		Short:         "Replay a bar/indicator export through the trading sessions with simulated brokers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, err := loadOptions(v)
			if err != nil {
				return err
			}
			log, err := logger.New(v.GetString("log-level"))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			res, err := replay(cmd.Context(), opts, log)
			if err != nil {
				return errors.Wrap(err, "replay")
			}
			return printSummary(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.String("data", "", "CSV export: instrument,time,open,high,low,close[,volume,indicators...]")
	f.String("config", "", "bot config file; strategy and capital are taken from it")
	f.String("market", "", "market preset: stocks | crypto")
	f.Float64("capital", 0, "starting capital per instrument")
	f.Float64("leverage", 0, "override leverage")
	f.Float64("commission", -1, "override commission rate")
	f.Int("max-retries", -1, "override primary attempts before failover")
	f.Bool("primary-down", false, "fail every order on the primary broker")
	f.String("log-level", "warn", "log level")
	_ = v.BindPFlags(f)

	return cmd
}

// loadOptions: дефолты -> файл конфига -> пресет -> флаги/env.
func loadOptions(v *viper.Viper) (options, error) {
	opts := options{
		Data:        v.GetString("data"),
		Capital:     200000,
		Params:      models.DefaultStrategyParams(),
		PrimaryDown: v.GetBool("primary-down"),
	}
	if opts.Data == "" {
		return opts, errors.New("--data is required")
	}

	if path := v.GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return opts, err
		}
		opts.Capital = cfg.Capital
		opts.Params = cfg.Strategy
	}
	if market := v.GetString("market"); market != "" {
		if !models.ApplyPreset(market, &opts.Params) {
			return opts, fmt.Errorf("unknown market preset %q", market)
		}
	}

	if c := v.GetFloat64("capital"); c > 0 {
		opts.Capital = c
	}
	if l := v.GetFloat64("leverage"); l > 0 {
		opts.Params.Leverage = l
	}
	if c := v.GetFloat64("commission"); c >= 0 {
		opts.Params.CommissionRate = c
	}
	if n := v.GetInt("max-retries"); n >= 0 {
		opts.Params.MaxRetries = n
	}
	return opts, errors.Wrap(opts.Params.Validate(), "strategy")
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
