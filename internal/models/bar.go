package models

import "time"

// Bar закрытая свеча инструмента.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// IndicatorSnapshot значения индикаторов на закрытие бара.
// Считаются снаружи, ядро их только читает.
type IndicatorSnapshot struct {
	VeryFastEMA float64 `json:"very_fast_ema"`
	FastEMA     float64 `json:"fast_ema"`
	MidEMA      float64 `json:"mid_ema"`
	RSI         float64 `json:"rsi"`

	MomentumBullish bool `json:"momentum_bullish"`
	MomentumBearish bool `json:"momentum_bearish"`

	// трендовая полоса (supertrend): уровень и направление +1/-1, 0 = неизвестно
	Band          float64 `json:"band"`
	BandDirection int     `json:"band_direction"`
}
