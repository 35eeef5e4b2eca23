package router

import (
	"context"
	"fmt"

	"failover_trader/internal/models"

	"go.uber.org/zap"
)

// OnBar кладёт закрытый бар в inbox инструмента без блокировки.
// Переполненный inbox и пауза бар отбрасывают.
func (r *Router) OnBar(instrument string, bar models.Bar, snap models.IndicatorSnapshot) bool {
	if r.paused.Load() {
		return false
	}

	r.mu.RLock()
	a, ok := r.actors[instrument]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	select {
	case a.inbox <- item{bar: &bar, snap: snap}:
		return true
	default:
		r.log.Warn("inbox full, bar dropped",
			zap.String("instrument", instrument),
			zap.Time("bar", bar.Time),
		)
		return false
	}
}

// OnFill исполнения не теряются: ждём места в inbox или отмены ctx.
func (r *Router) OnFill(ctx context.Context, fill models.Fill) error {
	r.mu.RLock()
	a, ok := r.actors[fill.Instrument]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: fill %s for %q", ErrUnknownInstrument, fill.OrderID, fill.Instrument)
	}

	select {
	case a.inbox <- item{fill: &fill}:
		return nil
	case <-a.done:
		return fmt.Errorf("%w: %s disabled", ErrUnknownInstrument, fill.Instrument)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FanIn разносит исполнения из канала брокеров по инструментам до закрытия канала или отмены ctx.
func (r *Router) FanIn(ctx context.Context, fills <-chan models.Fill) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-fills:
			if !ok {
				return
			}
			if err := r.OnFill(ctx, f); err != nil {
				r.log.Error("fill not routed", zap.String("order_id", f.OrderID), zap.Error(err))
			}
		}
	}
}
