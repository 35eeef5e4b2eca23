package sessions

import (
	"context"
	"fmt"

	"failover_trader/internal/models"

	"go.uber.org/zap"
)

// OnFill подтверждение исполнения. Повтор уже применённого исполнения
// ничего не делает, любое другое неожиданное исполнение останавливает сессию.
func (s *Session) OnFill(ctx context.Context, fill models.Fill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return ErrSessionHalted
	}
	if s.applied.has(fill.OrderID) {
		s.log.Debug("duplicate fill ignored", zap.String("order_id", fill.OrderID))
		return nil
	}

	p := s.pending
	switch {
	case s.state == models.StateEntering && p != nil && !p.Exit && p.OrderID == fill.OrderID:
		s.applyEntryFill(fill)
	case s.state == models.StateExiting && p != nil && p.Exit && p.OrderID == fill.OrderID:
		s.applyExitFill(fill)
	default:
		return s.halt(fmt.Errorf("%w: fill %s in state %s", ErrInvalidTransition, fill.OrderID, s.state))
	}

	s.applied.add(fill.OrderID)
	s.pending = nil
	s.publish()
	return nil
}

func (s *Session) applyEntryFill(fill models.Fill) {
	p := s.pending
	price := fill.Price
	if price <= 0 {
		price = p.RefPrice
	}
	qty := fill.Quantity
	if qty <= 0 {
		qty = p.Quantity
	}
	at := fill.Time
	if at.IsZero() {
		at = s.lastBar
	}

	tp, sl := BracketLevels(p.Direction, price, s.params)
	s.pos = &models.Position{
		Instrument: s.instrument,
		Direction:  p.Direction,
		EntryPrice: price,
		EntryTime:  at,
		Quantity:   qty,
		TakeProfit: tp,
		StopLoss:   sl,
		OrderID:    p.OrderID,
		Broker:     p.Broker,
	}
	s.state = models.StateOpen
	s.metrics.PositionsOpen.Inc()

	s.log.Info("position opened",
		zap.String("direction", p.Direction.String()),
		zap.Float64("entry", price),
		zap.Float64("qty", qty),
		zap.Float64("tp", tp),
		zap.Float64("sl", sl),
		zap.String("broker", p.Broker),
	)
	s.emit(models.TradeEvent{
		Type:       models.EventEntryFilled,
		Direction:  p.Direction,
		OrderID:    p.OrderID,
		Broker:     p.Broker,
		EntryPrice: price,
		Quantity:   qty,
		TakeProfit: tp,
		StopLoss:   sl,
		Reason:     p.Reason,
		Time:       at,
	})
}

func (s *Session) applyExitFill(fill models.Fill) {
	p := s.pending
	pos := s.pos
	price := fill.Price
	if price <= 0 {
		price = p.RefPrice
	}
	at := fill.Time
	if at.IsZero() {
		at = s.lastBar
	}

	gross, commission, net := NetProfit(pos.Direction, pos.EntryPrice, price, pos.Quantity, s.params.CommissionRate)
	s.cash += net
	s.realized += net
	s.trades++
	if net > 0 {
		s.wins++
	}
	s.metrics.PositionsOpen.Dec()
	s.metrics.RealizedPnL.WithLabelValues(s.instrument).Set(s.realized)

	s.log.Info("position closed",
		zap.String("direction", pos.Direction.String()),
		zap.Float64("entry", pos.EntryPrice),
		zap.Float64("exit", price),
		zap.Float64("gross", gross),
		zap.Float64("commission", commission),
		zap.Float64("net", net),
		zap.String("reason", p.Reason),
	)
	s.emit(models.TradeEvent{
		Type:       models.EventExitFilled,
		Direction:  pos.Direction,
		OrderID:    p.OrderID,
		Broker:     p.Broker,
		EntryPrice: pos.EntryPrice,
		ExitPrice:  price,
		Quantity:   pos.Quantity,
		TakeProfit: pos.TakeProfit,
		StopLoss:   pos.StopLoss,
		GrossPnL:   gross,
		NetPnL:     net,
		Reason:     p.Reason,
		Time:       at,
	})

	s.pos = nil
	s.state = models.StateFlat
}
