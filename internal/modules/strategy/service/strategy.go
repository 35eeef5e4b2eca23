package service

import (
	"failover_trader/internal/models"
)

// Input всё, что нужно движку на одном баре.
// History предыдущие закрытые бары по возрастанию времени, текущий бар в неё не входит.
type Input struct {
	Bar      models.Bar
	History  []models.Bar
	Snapshot models.IndicatorSnapshot
	Holding  models.Direction
}

// Engine чистая функция решений: без часов, без состояния между вызовами.
// Одинаковый Input всегда даёт одинаковый Signal.
type Engine struct {
	params models.StrategyParams
}

func NewEngine(params models.StrategyParams) *Engine {
	return &Engine{params: params}
}

func (e *Engine) Params() models.StrategyParams { return e.params }

// Ready хватает ли истории для оценки правил.
func (e *Engine) Ready(historyLen int) bool {
	if historyLen < 2 {
		return false
	}
	return historyLen+1 >= e.params.StartupCandles
}

func (e *Engine) Evaluate(in Input) models.Signal {
	if !e.Ready(len(in.History)) {
		return models.Signal{Kind: models.NoSignal}
	}
	if in.Holding == models.Flat {
		return e.EntrySignal(in.Bar, in.History, in.Snapshot)
	}
	return e.ExitSignal(in.Bar, in.Snapshot, in.Holding)
}

// EntrySignal при одновременном long и short выигрывает long.
func (e *Engine) EntrySignal(bar models.Bar, history []models.Bar, snap models.IndicatorSnapshot) models.Signal {
	if len(history) < 2 {
		return models.Signal{Kind: models.NoSignal}
	}
	prev := history[len(history)-1]
	prev2 := history[len(history)-2]

	if e.longEntry(bar, prev, prev2, snap) {
		return models.Signal{Kind: models.EnterLong, Tag: models.TagLong}
	}
	if e.shortEntry(bar, prev, prev2, snap) {
		return models.Signal{Kind: models.EnterShort, Tag: models.TagShort}
	}
	return models.Signal{Kind: models.NoSignal}
}

// ExitSignal разворот трендовой полосы против удерживаемой позиции.
func (e *Engine) ExitSignal(bar models.Bar, snap models.IndicatorSnapshot, holding models.Direction) models.Signal {
	switch holding {
	case models.Long:
		if bar.Close < snap.Band && snap.BandDirection == -1 {
			return models.Signal{Kind: models.ExitLong, Tag: models.TagSupertrend}
		}
	case models.Short:
		if bar.Close > snap.Band && snap.BandDirection == 1 {
			return models.Signal{Kind: models.ExitShort, Tag: models.TagSupertrend}
		}
	}
	return models.Signal{Kind: models.NoSignal}
}

func (e *Engine) longEntry(bar, prev, prev2 models.Bar, s models.IndicatorSnapshot) bool {
	return s.FastEMA > s.MidEMA &&
		s.VeryFastEMA > s.FastEMA &&
		s.RSI > e.params.RSILong &&
		bar.Close > prev.High &&
		prev.Close > prev2.Close &&
		bar.Close > bar.Open &&
		s.MomentumBullish &&
		bar.Volume > 0
}

func (e *Engine) shortEntry(bar, prev, prev2 models.Bar, s models.IndicatorSnapshot) bool {
	return s.FastEMA < s.MidEMA &&
		s.VeryFastEMA < s.FastEMA &&
		s.RSI < e.params.RSIShort &&
		bar.Close < prev.Low &&
		prev.Close < prev2.Close &&
		bar.Close < bar.Open &&
		s.MomentumBearish &&
		bar.Volume > 0
}
