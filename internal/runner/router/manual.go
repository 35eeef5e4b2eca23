package router

import (
	"context"
	"errors"
	"fmt"

	"failover_trader/internal/models"
	"failover_trader/internal/runner/sessions"
)

var ErrNoPosition = errors.New("no open position")

// ClosePosition ручное закрытие по последней цене. Сессию без открытой
// позиции не трогаем, иначе она ушла бы в остановку.
func (r *Router) ClosePosition(ctx context.Context, instrument string) error {
	sess, ok := r.Session(instrument)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstrument, instrument)
	}
	st := sess.Status()
	if st.Halted {
		return sessions.ErrSessionHalted
	}
	if st.State != models.StateOpen {
		return fmt.Errorf("%w: %s is %s", ErrNoPosition, instrument, st.State)
	}
	return sess.RequestExit(ctx, models.ReasonManual)
}

// ResumeSession снимает остановку сессии после ручного разбора.
func (r *Router) ResumeSession(instrument string) error {
	sess, ok := r.Session(instrument)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstrument, instrument)
	}
	sess.Resume()
	return nil
}
