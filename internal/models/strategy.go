package models

import (
	"fmt"

	"github.com/pkg/errors"
)

type SignalKind int

const (
	NoSignal SignalKind = iota
	EnterLong
	EnterShort
	ExitLong
	ExitShort
)

func (k SignalKind) String() string {
	switch k {
	case EnterLong:
		return "enter_long"
	case EnterShort:
		return "enter_short"
	case ExitLong:
		return "exit_long"
	case ExitShort:
		return "exit_short"
	default:
		return "none"
	}
}

func (k SignalKind) IsEntry() bool { return k == EnterLong || k == EnterShort }
func (k SignalKind) IsExit() bool  { return k == ExitLong || k == ExitShort }

// Теги сигналов
const (
	TagLong       = "long_signal"
	TagShort      = "short_signal"
	TagSupertrend = "supertrend_signal"
)

type Signal struct {
	Kind SignalKind
	Tag  string
}

// Direction направление позиции.
type Direction int

const (
	Flat  Direction = 0
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// TimeWindow окно времени суток [Start, End) в зоне Location, формат "15:04".
type TimeWindow struct {
	Enabled  bool   `yaml:"enabled"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Location string `yaml:"location"`
}

// StrategyParams неизменны на весь прогон.
type StrategyParams struct {
	RSILong  float64 `yaml:"rsi_long"`
	RSIShort float64 `yaml:"rsi_short"`

	BandPeriod     int     `yaml:"band_period"`
	BandMultiplier float64 `yaml:"band_multiplier"`

	Leverage       float64 `yaml:"leverage"`
	CommissionRate float64 `yaml:"commission_rate"`
	StopLossPct    float64 `yaml:"stop_loss_pct"`   // доля, 0.005 => 0.5%
	TakeProfitPct  float64 `yaml:"take_profit_pct"` // доля, 0.10 => 10%

	StartupCandles int `yaml:"startup_candles"`
	MaxRetries     int `yaml:"max_retries"`

	ForbiddenWindow TimeWindow `yaml:"forbidden_window"`
}

func DefaultStrategyParams() StrategyParams {
	return StrategyParams{
		RSILong:        60,
		RSIShort:       40,
		BandPeriod:     25,
		BandMultiplier: 3.0,
		Leverage:       8,
		CommissionRate: 0.0001,
		StopLossPct:    0.005,
		TakeProfitPct:  0.10,
		StartupCandles: 100,
		MaxRetries:     3,
		ForbiddenWindow: TimeWindow{
			Enabled:  true,
			Start:    "09:15",
			End:      "10:00",
			Location: "Asia/Kolkata",
		},
	}
}

func (p StrategyParams) Validate() error {
	if p.Leverage <= 0 {
		return errors.New("leverage must be positive")
	}
	if p.CommissionRate < 0 {
		return errors.New("commission_rate must not be negative")
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 1 {
		return fmt.Errorf("stop_loss_pct out of range: %v", p.StopLossPct)
	}
	if p.TakeProfitPct <= 0 {
		return fmt.Errorf("take_profit_pct out of range: %v", p.TakeProfitPct)
	}
	if p.RSIShort > p.RSILong {
		return fmt.Errorf("rsi_short %v above rsi_long %v", p.RSIShort, p.RSILong)
	}
	if p.StartupCandles < 0 {
		return errors.New("startup_candles must not be negative")
	}
	if p.MaxRetries < 0 {
		return errors.New("max_retries must not be negative")
	}
	return nil
}
