package sessions

import (
	"context"
	"fmt"

	"failover_trader/internal/models"
	strategy "failover_trader/internal/modules/strategy/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OnBar один вызов на закрытый бар инструмента.
func (s *Session) OnBar(ctx context.Context, bar models.Bar, snap models.IndicatorSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return ErrSessionHalted
	}
	s.lastPrice = bar.Close
	s.lastBar = bar.Time

	switch s.state {
	case models.StateFlat:
		sig := s.engine.Evaluate(strategy.Input{Bar: bar, History: s.history, Snapshot: snap, Holding: models.Flat})
		if sig.Kind.IsEntry() {
			s.enter(ctx, bar, sig)
		}

	case models.StateOpen:
		s.onOpenBar(ctx, bar, snap)

	default:
		// Entering / Exiting: ждём исполнения, новые сигналы игнорируются
	}

	s.pushBar(bar)
	s.publish()
	return nil
}

func (s *Session) onOpenBar(ctx context.Context, bar models.Bar, snap models.IndicatorSnapshot) {
	if price, reason, ok := s.hardExit(bar); ok {
		s.exit(ctx, price, reason)
		return
	}

	// повтор выхода по стопу, тейку или вручную, который не удалось отправить на прошлом баре
	if s.exitRetry != "" {
		s.exit(ctx, bar.Close, s.exitRetry)
		return
	}

	sig := s.engine.Evaluate(strategy.Input{Bar: bar, History: s.history, Snapshot: snap, Holding: s.pos.Direction})
	if !sig.Kind.IsExit() {
		return
	}

	gross, commission, net := NetProfit(s.pos.Direction, s.pos.EntryPrice, bar.Close, s.pos.Quantity, s.params.CommissionRate)
	if net <= 0 {
		s.metrics.ExitsRejected.WithLabelValues(models.ReasonCommissionGate).Inc()
		s.log.Info("trend exit blocked by commission gate",
			zap.Float64("gross", gross),
			zap.Float64("commission", commission),
			zap.Float64("net", net),
		)
		s.emit(models.TradeEvent{
			Type:       models.EventExitRejected,
			Direction:  s.pos.Direction,
			OrderID:    s.pos.OrderID,
			Broker:     s.pos.Broker,
			EntryPrice: s.pos.EntryPrice,
			ExitPrice:  bar.Close,
			Quantity:   s.pos.Quantity,
			GrossPnL:   gross,
			NetPnL:     net,
			Reason:     models.ReasonCommissionGate,
			Time:       bar.Time,
		})
		return
	}
	s.exit(ctx, bar.Close, models.ReasonTrendReversal)
}

// hardExit касание стопа или тейка внутри бара. Если задеты оба, считаем стоп.
// При гэпе через уровень цена выхода это открытие бара.
func (s *Session) hardExit(bar models.Bar) (float64, string, bool) {
	p := s.pos
	switch p.Direction {
	case models.Long:
		if bar.Low <= p.StopLoss {
			return min(p.StopLoss, bar.Open), models.ReasonStopLoss, true
		}
		if bar.High >= p.TakeProfit {
			return max(p.TakeProfit, bar.Open), models.ReasonTakeProfit, true
		}
	case models.Short:
		if bar.High >= p.StopLoss {
			return max(p.StopLoss, bar.Open), models.ReasonStopLoss, true
		}
		if bar.Low <= p.TakeProfit {
			return min(p.TakeProfit, bar.Open), models.ReasonTakeProfit, true
		}
	}
	return 0, "", false
}

func (s *Session) enter(ctx context.Context, bar models.Bar, sig models.Signal) {
	if s.gate != nil && !s.gate.Allow(bar.Time) {
		s.log.Info("entry skipped: forbidden window", zap.String("signal", sig.Tag), zap.Time("bar", bar.Time))
		return
	}

	qty := CalcSizeByLeverage(s.cash, bar.Close, s.params.Leverage)
	if qty <= 0 {
		s.log.Info("entry skipped: zero size", zap.Float64("cash", s.cash), zap.Float64("price", bar.Close))
		return
	}

	dir := models.Long
	if sig.Kind == models.EnterShort {
		dir = models.Short
	}
	tp, sl := BracketLevels(dir, bar.Close, s.params)

	req := models.OrderRequest{
		ClientID:    uuid.NewString(),
		Instrument:  s.instrument,
		Side:        models.EntrySide(dir),
		Quantity:    qty,
		TargetPrice: tp,
		StopPrice:   sl,
		RefPrice:    bar.Close,
	}

	s.state = models.StateEntering
	s.publish()

	res, err := s.disp.Dispatch(ctx, req)
	if err != nil {
		// полный отказ: явно возвращаемся во Flat
		s.state = models.StateFlat
		s.log.Warn("entry aborted", zap.String("signal", sig.Tag), zap.Error(err))
		s.emit(models.TradeEvent{
			Type:       models.EventEntryAborted,
			Direction:  dir,
			EntryPrice: bar.Close,
			Quantity:   qty,
			TakeProfit: tp,
			StopLoss:   sl,
			Reason:     err.Error(),
			Time:       bar.Time,
		})
		return
	}

	s.pending = &pendingOrder{
		OrderID:   res.OrderID,
		Broker:    res.Broker,
		Direction: dir,
		Quantity:  qty,
		RefPrice:  bar.Close,
		Reason:    sig.Tag,
	}
	s.emit(models.TradeEvent{
		Type:       models.EventEntryPlaced,
		Direction:  dir,
		OrderID:    res.OrderID,
		Broker:     res.Broker,
		EntryPrice: bar.Close,
		Quantity:   qty,
		TakeProfit: tp,
		StopLoss:   sl,
		Reason:     sig.Tag,
		Time:       bar.Time,
	})
}

func (s *Session) exit(ctx context.Context, price float64, reason string) {
	p := s.pos
	req := models.OrderRequest{
		ClientID:   uuid.NewString(),
		Instrument: s.instrument,
		Side:       models.ExitSide(p.Direction),
		Quantity:   p.Quantity,
		RefPrice:   price,
		ReduceOnly: true,
		Broker:     p.Broker,
	}

	s.state = models.StateExiting
	s.publish()

	res, err := s.disp.Dispatch(ctx, req)
	if err != nil {
		s.state = models.StateOpen
		// выход по развороту тренда заново проходит сигнал и шлюз комиссии
		s.exitRetry = reason
		if reason == models.ReasonTrendReversal {
			s.exitRetry = ""
		}
		s.metrics.ExitsRejected.WithLabelValues(models.ReasonDispatchFailed).Inc()
		s.log.Error("exit dispatch failed", zap.String("reason", reason), zap.Error(err))
		s.emit(models.TradeEvent{
			Type:       models.EventExitRejected,
			Direction:  p.Direction,
			OrderID:    p.OrderID,
			Broker:     p.Broker,
			EntryPrice: p.EntryPrice,
			ExitPrice:  price,
			Quantity:   p.Quantity,
			Reason:     fmt.Sprintf("%s: %s", models.ReasonDispatchFailed, err),
		})
		return
	}

	s.exitRetry = ""
	s.pending = &pendingOrder{
		OrderID:   res.OrderID,
		Broker:    res.Broker,
		Exit:      true,
		Direction: p.Direction,
		Quantity:  p.Quantity,
		RefPrice:  price,
		Reason:    reason,
	}
	s.emit(models.TradeEvent{
		Type:       models.EventExitPlaced,
		Direction:  p.Direction,
		OrderID:    res.OrderID,
		Broker:     res.Broker,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Quantity:   p.Quantity,
		Reason:     reason,
	})
}
