package service

import (
	"testing"
	"time"

	"failover_trader/internal/models"
)

var t0 = time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)

func testParams() models.StrategyParams {
	p := models.DefaultStrategyParams()
	p.StartupCandles = 3
	return p
}

func longSetup() (models.Bar, []models.Bar, models.IndicatorSnapshot) {
	history := []models.Bar{
		{Time: t0, Open: 99.5, High: 100.2, Low: 99.4, Close: 100, Volume: 800},
		{Time: t0.Add(time.Minute), Open: 100, High: 101, Low: 99.5, Close: 100.5, Volume: 900},
	}
	bar := models.Bar{Time: t0.Add(2 * time.Minute), Open: 100.8, High: 102, Low: 100.7, Close: 101.5, Volume: 1000}
	snap := models.IndicatorSnapshot{
		VeryFastEMA: 101.2, FastEMA: 101.0, MidEMA: 100.5,
		RSI: 65, MomentumBullish: true,
		Band: 99.0, BandDirection: 1,
	}
	return bar, history, snap
}

func shortSetup() (models.Bar, []models.Bar, models.IndicatorSnapshot) {
	history := []models.Bar{
		{Time: t0, Open: 100.2, High: 100.4, Low: 99.8, Close: 100, Volume: 800},
		{Time: t0.Add(time.Minute), Open: 100, High: 100.5, Low: 99, Close: 99.5, Volume: 900},
	}
	bar := models.Bar{Time: t0.Add(2 * time.Minute), Open: 99.2, High: 99.3, Low: 98.2, Close: 98.5, Volume: 1000}
	snap := models.IndicatorSnapshot{
		VeryFastEMA: 98.8, FastEMA: 99.0, MidEMA: 99.5,
		RSI: 35, MomentumBearish: true,
		Band: 101.0, BandDirection: -1,
	}
	return bar, history, snap
}

func TestEvaluate_Entries(t *testing.T) {
	e := NewEngine(testParams())

	bar, hist, snap := longSetup()
	sig := e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap})
	if sig.Kind != models.EnterLong || sig.Tag != models.TagLong {
		t.Fatalf("long: got %v %q", sig.Kind, sig.Tag)
	}

	bar, hist, snap = shortSetup()
	sig = e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap})
	if sig.Kind != models.EnterShort || sig.Tag != models.TagShort {
		t.Fatalf("short: got %v %q", sig.Kind, sig.Tag)
	}
}

func TestEvaluate_LongConditionsEachRequired(t *testing.T) {
	e := NewEngine(testParams())

	cases := []struct {
		name   string
		mutate func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot)
	}{
		{"fast below mid", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { s.FastEMA = 100.4 }},
		{"very fast below fast", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { s.VeryFastEMA = 100.9 }},
		{"rsi at threshold", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { s.RSI = 60 }},
		{"close not above prev high", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { b.Close = 101 }},
		{"prev close not rising", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { h[1].Close = 100 }},
		{"bearish candle", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { b.Open = 101.6 }},
		{"no momentum", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { s.MomentumBullish = false }},
		{"zero volume", func(b *models.Bar, h []models.Bar, s *models.IndicatorSnapshot) { b.Volume = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bar, hist, snap := longSetup()
			tc.mutate(&bar, hist, &snap)
			if sig := e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap}); sig.Kind != models.NoSignal {
				t.Fatalf("expected no signal, got %v", sig.Kind)
			}
		})
	}
}

func TestEvaluate_WarmUp(t *testing.T) {
	p := testParams()
	p.StartupCandles = 100
	e := NewEngine(p)

	bar, hist, snap := longSetup()
	if sig := e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap}); sig.Kind != models.NoSignal {
		t.Fatalf("expected no signal during warm-up, got %v", sig.Kind)
	}

	// меньше двух предыдущих баров
	e = NewEngine(testParams())
	if sig := e.Evaluate(Input{Bar: bar, History: hist[1:], Snapshot: snap}); sig.Kind != models.NoSignal {
		t.Fatalf("expected no signal with one bar of history, got %v", sig.Kind)
	}
}

func TestEvaluate_Exits(t *testing.T) {
	e := NewEngine(testParams())
	bar, hist, snap := longSetup()

	// держим long, полоса выше цены и направлена вниз
	snap.Band = 102
	snap.BandDirection = -1
	sig := e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap, Holding: models.Long})
	if sig.Kind != models.ExitLong || sig.Tag != models.TagSupertrend {
		t.Fatalf("exit long: got %v %q", sig.Kind, sig.Tag)
	}

	// направление вверх: выхода нет
	snap.BandDirection = 1
	if sig := e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap, Holding: models.Long}); sig.Kind != models.NoSignal {
		t.Fatalf("expected hold, got %v", sig.Kind)
	}

	bar, hist, snap = shortSetup()
	snap.Band = 98
	snap.BandDirection = 1
	sig = e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap, Holding: models.Short})
	if sig.Kind != models.ExitShort {
		t.Fatalf("exit short: got %v", sig.Kind)
	}
}

func TestEvaluate_NoEntryWhileHolding(t *testing.T) {
	e := NewEngine(testParams())
	bar, hist, snap := longSetup()

	sig := e.Evaluate(Input{Bar: bar, History: hist, Snapshot: snap, Holding: models.Short})
	if sig.Kind.IsEntry() {
		t.Fatalf("entry signal while holding: %v", sig.Kind)
	}
}

func TestEvaluate_Pure(t *testing.T) {
	e := NewEngine(testParams())
	bar, hist, snap := longSetup()
	in := Input{Bar: bar, History: hist, Snapshot: snap}

	first := e.Evaluate(in)
	for i := 0; i < 5; i++ {
		if got := e.Evaluate(in); got != first {
			t.Fatalf("run %d: %v != %v", i, got, first)
		}
	}
}
