package sessions

import (
	"context"
	"fmt"

	"failover_trader/internal/models"

	"go.uber.org/zap"
)

// CancelEntry отмена входа возможна только в Entering.
// После исполнения входа возвращает ErrCancelAfterFill.
func (s *Session) CancelEntry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return ErrSessionHalted
	}

	switch s.state {
	case models.StateOpen, models.StateExiting:
		s.log.Error("cancel requested after entry fill", zap.String("state", string(s.state)))
		return ErrCancelAfterFill
	case models.StateEntering:
	default:
		return s.halt(fmt.Errorf("%w: cancel in state %s", ErrInvalidTransition, s.state))
	}

	p := s.pending
	if p == nil || p.Exit {
		return s.halt(fmt.Errorf("%w: entering without pending entry", ErrInvalidTransition))
	}
	if err := s.disp.Cancel(ctx, p.OrderID); err != nil {
		// состояние не трогаем: исполнение ещё может прийти
		return fmt.Errorf("cancel entry %s: %w", p.OrderID, err)
	}

	s.state = models.StateFlat
	s.pending = nil
	s.emit(models.TradeEvent{
		Type:       models.EventEntryCancelled,
		Direction:  p.Direction,
		OrderID:    p.OrderID,
		Broker:     p.Broker,
		EntryPrice: p.RefPrice,
		Quantity:   p.Quantity,
		Reason:     models.ReasonManual,
	})
	s.publish()
	return nil
}

// RequestExit ручное закрытие открытой позиции по последней цене,
// без шлюза комиссии.
func (s *Session) RequestExit(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return ErrSessionHalted
	}
	if s.state != models.StateOpen {
		return s.halt(fmt.Errorf("%w: exit request in state %s", ErrInvalidTransition, s.state))
	}
	if reason == "" {
		reason = models.ReasonManual
	}

	s.exit(ctx, s.lastPrice, reason)
	s.publish()
	if s.state != models.StateExiting {
		return fmt.Errorf("exit %s not dispatched", s.instrument)
	}
	return nil
}
